package daily

import (
	"context"
	"strings"
	"sync"
	"time"

	"coinpulse/internal/domain/coin"
	"coinpulse/internal/domain/news"
	"coinpulse/internal/domain/sentiment"
	"coinpulse/internal/events"
	"coinpulse/pkg/errors"
)

type fakeMarket struct {
	quotes []coin.Quote
	err    error
	calls  int
}

func (f *fakeMarket) TopCoins(_ context.Context, limit int) ([]coin.Quote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.quotes) {
		return f.quotes[:limit], nil
	}
	return f.quotes, nil
}

type fakeCoins struct {
	mu       sync.Mutex
	byExt    map[string]*coin.Coin
	prices   []coin.DailyPrice
	failExt  map[string]bool
	nextID   int64
	priceErr error
}

func newFakeCoins() *fakeCoins {
	return &fakeCoins{byExt: make(map[string]*coin.Coin), failExt: make(map[string]bool)}
}

func (f *fakeCoins) Upsert(_ context.Context, externalID, symbol, name string) (*coin.Coin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failExt[externalID] {
		return nil, errors.New("insert failed")
	}
	c, ok := f.byExt[externalID]
	if !ok {
		f.nextID++
		c = &coin.Coin{ID: f.nextID, ExternalID: externalID}
		f.byExt[externalID] = c
	}
	c.Symbol, c.Name = symbol, name
	cp := *c
	return &cp, nil
}

func (f *fakeCoins) GetByID(_ context.Context, id int64) (*coin.Coin, error) {
	for _, c := range f.byExt {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, errors.ErrNotFound
}

func (f *fakeCoins) List(context.Context) ([]coin.Coin, error) { return nil, nil }

func (f *fakeCoins) UpsertDailyPrice(_ context.Context, p *coin.DailyPrice) error {
	if f.priceErr != nil {
		return f.priceErr
	}
	f.prices = append(f.prices, *p)
	return nil
}

func (f *fakeCoins) RecentPrices(context.Context, int64, int) ([]coin.DailyPrice, error) {
	return nil, nil
}

func (f *fakeCoins) Latest(context.Context) ([]coin.LatestRow, error) { return nil, nil }

type fakeFeeds struct {
	batch *news.Batch
	err   error
}

func (f *fakeFeeds) Collect(context.Context) (*news.Batch, error) {
	return f.batch, f.err
}

type fakeArticles struct {
	ids      map[string]int64
	failLink map[string]bool
}

func newFakeArticles() *fakeArticles {
	return &fakeArticles{ids: make(map[string]int64), failLink: make(map[string]bool)}
}

func (f *fakeArticles) Upsert(_ context.Context, a *news.Article) (int64, error) {
	if f.failLink[a.Link] {
		return 0, errors.New("write failed")
	}
	id, ok := f.ids[a.Link]
	if !ok {
		id = int64(len(f.ids) + 100)
		f.ids[a.Link] = id
	}
	a.ID = id
	return id, nil
}

func (f *fakeArticles) RecentForCoin(context.Context, int64, int) ([]news.MentionedArticle, error) {
	return nil, nil
}

type fakeSentiment struct {
	rows     map[int64]sentiment.Daily
	links    []sentiment.ArticleMention
	failCoin map[int64]bool
}

func newFakeSentiment() *fakeSentiment {
	return &fakeSentiment{rows: make(map[int64]sentiment.Daily), failCoin: make(map[int64]bool)}
}

func (f *fakeSentiment) UpsertDaily(_ context.Context, row *sentiment.Daily) error {
	if f.failCoin[row.CoinID] {
		return errors.New("write failed")
	}
	f.rows[row.CoinID] = *row
	return nil
}

func (f *fakeSentiment) RecentForCoin(context.Context, int64, int) ([]sentiment.Daily, error) {
	return nil, nil
}

func (f *fakeSentiment) SaveArticleMentions(_ context.Context, links []sentiment.ArticleMention) error {
	f.links = append(f.links, links...)
	return nil
}

func (f *fakeSentiment) LatestDate(context.Context) (time.Time, error) { return time.Time{}, nil }

type fakeLock struct {
	held     bool
	released int
}

func (f *fakeLock) Acquire(context.Context) (func(context.Context) error, error) {
	if f.held {
		return nil, errors.ErrLockNotAcquired
	}
	f.held = true
	return func(context.Context) error {
		f.held = false
		f.released++
		return nil
	}, nil
}

type fakeCache struct{ invalidated int }

func (f *fakeCache) Invalidate(context.Context) error {
	f.invalidated++
	return nil
}

type fakeArchive struct {
	rows []news.ScoredArticle
	err  error
}

func (f *fakeArchive) InsertBatch(_ context.Context, rows []news.ScoredArticle) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, rows...)
	return nil
}

type fakePublisher struct {
	updated []*events.DailySentimentUpdated
	failed  []*events.DailyRunFailed
}

func (f *fakePublisher) PublishDailySentiment(_ context.Context, e *events.DailySentimentUpdated) error {
	f.updated = append(f.updated, e)
	return nil
}

func (f *fakePublisher) PublishRunFailed(_ context.Context, e *events.DailyRunFailed) error {
	f.failed = append(f.failed, e)
	return nil
}

type fakeTracker struct {
	captured []error
}

func (f *fakeTracker) CaptureError(_ context.Context, err error, _ map[string]string) error {
	f.captured = append(f.captured, err)
	return nil
}

func (f *fakeTracker) CaptureMessage(context.Context, string, errors.Level, map[string]string) error {
	return nil
}

func (f *fakeTracker) AddBreadcrumb(context.Context, string, string, errors.Level, map[string]interface{}) {
}

func (f *fakeTracker) Flush(context.Context) error { return nil }

// keywordScorer scores "up" as 0.5 and "down" as -0.5
var keywordScorer = sentiment.ScorerFunc(func(text string) (float64, error) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, " up"):
		return 0.5, nil
	case strings.Contains(lower, " down"):
		return -0.5, nil
	}
	return 0, nil
})
