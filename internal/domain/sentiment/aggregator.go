package sentiment

import (
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"coinpulse/internal/domain/news"
	"coinpulse/pkg/errors"
	"coinpulse/pkg/logger"
)

// Aggregator attributes article sentiment to the coins each article mentions
type Aggregator struct {
	scorer  Scorer
	workers int
	log     *logger.Logger
}

// NewAggregator creates an aggregator. workers <= 1 processes articles sequentially.
func NewAggregator(scorer Scorer, workers int, log *logger.Logger) *Aggregator {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.Get()
	}
	return &Aggregator{
		scorer:  scorer,
		workers: workers,
		log:     log.With("component", "sentiment_aggregator"),
	}
}

type articleOutcome struct {
	mentions []Mention
	score    float64
	err      error
}

// Aggregate matches and scores every article and returns one accumulator per roster coin.
// An article mentioning no coin is never scored. An article whose scoring fails contributes nothing.
func (a *Aggregator) Aggregate(articles []news.Article, roster []RosterCoin, asOf time.Time) *Result {
	result := &Result{
		Date:  asOf,
		Coins: make(map[int64]Accumulator, len(roster)),
	}

	unique := make([]RosterCoin, 0, len(roster))
	for _, c := range roster {
		if _, ok := result.Coins[c.ID]; ok {
			continue
		}
		result.Coins[c.ID] = Accumulator{CoinID: c.ID}
		unique = append(unique, c)
	}

	matcher := NewMatcher(unique)
	outcomes := make([]articleOutcome, len(articles))

	if a.workers == 1 || len(articles) < 2 {
		for i := range articles {
			outcomes[i] = a.process(matcher, articles[i])
		}
	} else {
		var g errgroup.Group
		g.SetLimit(a.workers)
		for i := range articles {
			g.Go(func() error {
				outcomes[i] = a.process(matcher, articles[i])
				return nil
			})
		}
		_ = g.Wait()
	}

	// merge in article order so samples are deterministic regardless of worker count
	for i, out := range outcomes {
		if len(out.mentions) == 0 {
			result.Skipped++
			continue
		}
		if out.err != nil {
			result.ScoringFailures++
			a.log.Warnw("Skipping article, scoring failed",
				"link", articles[i].Link,
				"error", out.err,
			)
			continue
		}

		for _, m := range out.mentions {
			acc := result.Coins[m.CoinID]
			acc.add(out.score, m.Mentions)
			result.Coins[m.CoinID] = acc
		}
		result.Articles = append(result.Articles, ArticleScore{
			Article:  articles[i],
			Score:    out.score,
			Mentions: out.mentions,
		})
	}

	for id, acc := range result.Coins {
		acc.finalize()
		result.Coins[id] = acc
	}

	return result
}

func (a *Aggregator) process(matcher *Matcher, article news.Article) articleOutcome {
	mentions := matcher.Find(article.Text())
	if len(mentions) == 0 {
		return articleOutcome{}
	}
	score, err := a.score(article.Text())
	return articleOutcome{mentions: mentions, score: score, err: err}
}

// score calls the scorer, turning panics and out-of-range values into ErrScoringFailed
func (a *Aggregator) score(text string) (score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(errors.ErrScoringFailed, "scorer panicked: %v", r)
		}
	}()

	score, err = a.scorer.Score(text)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrScoringFailed, "%v", err)
	}
	if math.IsNaN(score) || score < -1 || score > 1 {
		return 0, errors.Wrapf(errors.ErrScoringFailed, "score %v out of range", score)
	}
	return score, nil
}
