package daily

import (
	"context"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"coinpulse/internal/domain/coin"
	"coinpulse/internal/domain/news"
	"coinpulse/internal/domain/sentiment"
	"coinpulse/internal/events"
	"coinpulse/internal/metrics"
	"coinpulse/pkg/errors"
	"coinpulse/pkg/logger"
)

// Locker serializes daily runs across processes
type Locker interface {
	Acquire(ctx context.Context) (func(context.Context) error, error)
}

// CacheInvalidator drops the cached latest table after new data is stored
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// EventPublisher announces run outcomes
type EventPublisher interface {
	PublishDailySentiment(ctx context.Context, event *events.DailySentimentUpdated) error
	PublishRunFailed(ctx context.Context, event *events.DailyRunFailed) error
}

// Deps are the collaborators of a daily run. Lock, Cache, Archive, Publisher and Tracker are optional.
type Deps struct {
	Market     coin.MarketSource
	Coins      coin.Repository
	Feeds      news.Source
	Articles   news.Repository
	Sentiment  sentiment.Repository
	Aggregator *sentiment.Aggregator

	Lock      Locker
	Cache     CacheInvalidator
	Archive   news.Archive
	Publisher EventPublisher
	Tracker   errors.Tracker
}

// Service runs the daily update: prices, feeds, sentiment, storage
type Service struct {
	deps     Deps
	topCoins int
	now      func() time.Time
	log      *logger.Logger
}

// NewService creates a daily update service fetching the top topCoins coins
func NewService(deps Deps, topCoins int, log *logger.Logger) *Service {
	return &Service{
		deps:     deps,
		topCoins: topCoins,
		now:      time.Now,
		log:      log.With("component", "daily_update"),
	}
}

// run carries the state of one execution
type run struct {
	report  *Report
	log     *logger.Logger
	roster  []sentiment.RosterCoin
	symbols map[int64]string
}

func (r *run) fail(stage, key string, err error) {
	r.report.Failures = append(r.report.Failures, ItemFailure{Stage: stage, Key: key, Err: err})
	metrics.RecordItemFailure(stage)
	r.log.Warnw("Skipping item", "stage", stage, "key", key, "error", err)
}

// Run executes one daily update. The report is always returned; err is non-nil when the run aborted.
// ErrLockNotAcquired means another run is in progress and nothing was done.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	started := s.now().UTC()
	r := &run{
		report: &Report{
			RunID:     uuid.NewString(),
			Date:      coin.Day(started),
			StartedAt: started,
		},
		symbols: make(map[int64]string),
	}
	r.log = s.log.With("run_id", r.report.RunID)

	if s.deps.Lock != nil {
		release, err := s.deps.Lock.Acquire(ctx)
		if err != nil {
			r.report.Err = err
			r.report.FinishedAt = s.now().UTC()
			if errors.Is(err, errors.ErrLockNotAcquired) {
				r.log.Infow("Daily update already running elsewhere, skipping")
				metrics.RecordDailyRun("locked", 0, 0, 0, 0)
				return r.report, err
			}
			return s.abort(ctx, r, errors.Wrap(err, "acquire run lock"))
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := release(releaseCtx); err != nil {
				r.log.Warnw("Failed to release run lock", "error", err)
			}
		}()
	}

	r.log.Infow("Daily update started", "date", r.report.Date.Format(time.DateOnly))

	if err := s.refreshCoins(ctx, r); err != nil {
		return s.abort(ctx, r, err)
	}

	batch, err := s.collectArticles(ctx, r)
	if err != nil {
		return s.abort(ctx, r, err)
	}

	ids := s.storeArticles(ctx, r, batch.Articles)

	result := s.deps.Aggregator.Aggregate(batch.Articles, r.roster, r.report.Date)
	r.report.ArticlesScored = len(result.Articles)
	r.report.ArticlesSkipped = result.Skipped
	r.report.ScoringFailures = result.ScoringFailures
	r.report.TotalMentions = result.TotalMentions()
	r.report.CoinsMentioned = result.MentionedCoins()

	rows := s.storeSentiment(ctx, r, result)
	s.storeMentions(ctx, r, result, ids)

	if s.deps.Cache != nil {
		if err := s.deps.Cache.Invalidate(ctx); err != nil {
			r.fail(StageCache, "latest", err)
		}
	}

	s.archive(ctx, r, result)
	s.publish(ctx, r, rows)

	return s.finish(r), nil
}

// refreshCoins fetches the top coins and stores them with today's price
func (s *Service) refreshCoins(ctx context.Context, r *run) error {
	quotes, err := s.deps.Market.TopCoins(ctx, s.topCoins)
	if err != nil {
		return errors.Wrapf(errors.ErrNothingToAggregate, "fetch top coins: %v", err)
	}
	r.report.CoinsFetched = len(quotes)

	for _, q := range quotes {
		stored, err := s.deps.Coins.Upsert(ctx, q.ExternalID, q.Symbol, q.Name)
		if err != nil {
			r.fail(StageCoin, q.ExternalID, err)
			continue
		}
		r.report.CoinsStored++
		r.roster = append(r.roster, sentiment.RosterCoin{ID: stored.ID, Symbol: stored.Symbol, Name: stored.Name})
		r.symbols[stored.ID] = stored.Symbol

		price := &coin.DailyPrice{
			CoinID:    stored.ID,
			Date:      r.report.Date,
			PriceUSD:  q.PriceUSD,
			MarketCap: q.MarketCap,
		}
		if err := s.deps.Coins.UpsertDailyPrice(ctx, price); err != nil {
			r.fail(StagePrice, q.ExternalID, err)
		}
	}

	if len(r.roster) == 0 {
		return errors.Wrapf(errors.ErrNothingToAggregate, "no coins stored out of %d fetched", len(quotes))
	}
	return nil
}

// collectArticles gathers the feed batch. Individual feed failures are recorded, not fatal.
func (s *Service) collectArticles(ctx context.Context, r *run) (*news.Batch, error) {
	batch, err := s.deps.Feeds.Collect(ctx)
	if batch != nil {
		for _, f := range batch.Failures {
			r.fail(StageFeed, f.URL, f.Err)
		}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, errors.Wrap(ctxErr, "collect feeds")
	}
	if batch == nil || len(batch.Articles) == 0 {
		if err != nil {
			return nil, errors.Wrapf(errors.ErrNothingToAggregate, "collect feeds: %v", err)
		}
		return nil, errors.Wrap(errors.ErrNothingToAggregate, "no recent articles")
	}

	r.report.ArticlesFetched = len(batch.Articles)
	return batch, nil
}

// storeArticles upserts articles and returns their ids by link
func (s *Service) storeArticles(ctx context.Context, r *run, articles []news.Article) map[string]int64 {
	ids := make(map[string]int64, len(articles))
	for i := range articles {
		id, err := s.deps.Articles.Upsert(ctx, &articles[i])
		if err != nil {
			r.fail(StageArticle, articles[i].Link, err)
			continue
		}
		ids[articles[i].Link] = id
		r.report.ArticlesStored++
	}
	return ids
}

// storeSentiment writes one daily row per roster coin, in roster order
func (s *Service) storeSentiment(ctx context.Context, r *run, result *sentiment.Result) []sentiment.Daily {
	rows := make([]sentiment.Daily, 0, len(r.roster))
	seen := make(map[int64]bool, len(r.roster))

	for _, c := range r.roster {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true

		row := result.Coins[c.ID].Snapshot(r.report.Date)
		if err := s.deps.Sentiment.UpsertDaily(ctx, &row); err != nil {
			r.fail(StageSentiment, strconv.FormatInt(c.ID, 10), err)
			continue
		}
		rows = append(rows, row)
		r.report.CoinsUpdated++
	}
	return rows
}

// storeMentions links stored articles to the coins they mention
func (s *Service) storeMentions(ctx context.Context, r *run, result *sentiment.Result, ids map[string]int64) {
	var links []sentiment.ArticleMention
	for _, a := range result.Articles {
		id, ok := ids[a.Article.Link]
		if !ok {
			continue
		}
		for _, m := range a.Mentions {
			links = append(links, sentiment.ArticleMention{
				ArticleID: id,
				CoinID:    m.CoinID,
				Mentions:  m.Mentions,
				Score:     a.Score,
			})
		}
	}

	if err := s.deps.Sentiment.SaveArticleMentions(ctx, links); err != nil {
		r.fail(StageMentions, strconv.Itoa(len(links)), err)
	}
}

func (s *Service) archive(ctx context.Context, r *run, result *sentiment.Result) {
	if s.deps.Archive == nil || len(result.Articles) == 0 {
		return
	}

	scored := make([]news.ScoredArticle, 0, len(result.Articles))
	for _, a := range result.Articles {
		row := news.ScoredArticle{
			RunID:       r.report.RunID,
			Date:        r.report.Date,
			Link:        a.Article.Link,
			Title:       a.Article.Title,
			Source:      a.Article.Source,
			PublishedAt: a.Article.PublishedAt,
			Score:       a.Score,
		}
		for _, m := range a.Mentions {
			row.CoinIDs = append(row.CoinIDs, m.CoinID)
			row.Mentions = append(row.Mentions, int32(m.Mentions))
		}
		scored = append(scored, row)
	}

	if err := s.deps.Archive.InsertBatch(ctx, scored); err != nil {
		r.fail(StageArchive, r.report.RunID, err)
	}
}

func (s *Service) publish(ctx context.Context, r *run, rows []sentiment.Daily) {
	if s.deps.Publisher == nil {
		return
	}

	event := events.NewDailySentimentUpdated(
		r.report.RunID, r.report.Date, rows, r.symbols, r.report.ArticlesScored, r.report.ArticlesSkipped,
	)
	if err := s.deps.Publisher.PublishDailySentiment(ctx, event); err != nil {
		r.fail(StagePublish, r.report.RunID, err)
	}
}

func (s *Service) finish(r *run) *Report {
	rep := r.report
	rep.FinishedAt = s.now().UTC()

	metrics.RecordDailyRun(rep.Outcome(), rep.ArticlesScored, rep.ArticlesSkipped, rep.ScoringFailures, rep.CoinsMentioned)

	r.log.Infow("Daily update completed",
		"outcome", rep.Outcome(),
		"articles_processed", humanize.Comma(int64(rep.ArticlesFetched)),
		"articles_scored", humanize.Comma(int64(rep.ArticlesScored)),
		"total_mentions", humanize.Comma(int64(rep.TotalMentions)),
		"coins_mentioned", rep.CoinsMentioned,
		"coins_updated", rep.CoinsUpdated,
		"failures", rep.FailuresByStage(),
		"took", rep.Duration().Round(time.Millisecond).String(),
	)
	return rep
}

// abort marks the run failed and reports it to the tracker and event stream
func (s *Service) abort(ctx context.Context, r *run, err error) (*Report, error) {
	rep := r.report
	rep.Err = err
	rep.FinishedAt = s.now().UTC()

	metrics.RecordDailyRun(rep.Outcome(), 0, 0, 0, 0)
	// the tracker gets the wrapped error below, not the log line
	r.log.Warnw("Daily update aborted",
		"error", err,
		"failures", rep.FailuresByStage(),
		"started", humanize.Time(rep.StartedAt),
	)

	if s.deps.Tracker != nil {
		_ = s.deps.Tracker.CaptureError(ctx, err, map[string]string{
			"component": "daily_update",
			"run_id":    rep.RunID,
		})
	}

	if s.deps.Publisher != nil {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if pubErr := s.deps.Publisher.PublishRunFailed(pubCtx, events.NewDailyRunFailed(rep.RunID, rep.Date, err)); pubErr != nil {
			r.log.Warnw("Failed to publish run failure", "error", pubErr)
		}
	}

	return rep, err
}
