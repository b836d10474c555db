package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	adapterpg "coinpulse/internal/adapters/postgres"
	"coinpulse/internal/domain/coin"
	"coinpulse/internal/domain/news"
	"coinpulse/internal/testsupport"
	"coinpulse/pkg/logger"
)

// TestFixtures provides factory methods for creating test data inside the test transaction
type TestFixtures struct {
	tx *sqlx.Tx
	t  *testing.T
}

// newTestDB migrates the test database and returns a helper holding a rolled-back transaction
func newTestDB(t *testing.T) *testsupport.PostgresTestHelper {
	t.Helper()

	helper := testsupport.NewTestPostgres(t)
	err := adapterpg.NewMigrator(adapterpg.Wrap(helper.DB()), logger.NewNop()).Up(context.Background())
	require.NoError(t, err, "failed to migrate test database")

	return helper
}

// NewTestFixtures creates a new test fixtures factory
func NewTestFixtures(t *testing.T, tx *sqlx.Tx) *TestFixtures {
	t.Helper()
	return &TestFixtures{tx: tx, t: t}
}

// CreateCoin inserts a coin with unique external id and symbol
func (f *TestFixtures) CreateCoin(name string) *coin.Coin {
	f.t.Helper()

	c, err := NewCoinRepository(f.tx).Upsert(context.Background(),
		testsupport.UniqueName("test-coin"), testsupport.UniqueSymbol("T"), name)
	require.NoError(f.t, err, "Failed to create test coin")

	return c
}

// CreatePrice stores a daily price for the coin
func (f *TestFixtures) CreatePrice(coinID int64, date time.Time, price, marketCap float64) {
	f.t.Helper()

	err := NewCoinRepository(f.tx).UpsertDailyPrice(context.Background(), &coin.DailyPrice{
		CoinID:    coinID,
		Date:      date,
		PriceUSD:  decimal.NewNullDecimal(decimal.NewFromFloat(price)),
		MarketCap: decimal.NewNullDecimal(decimal.NewFromFloat(marketCap)),
	})
	require.NoError(f.t, err, "Failed to create test price")
}

// CreateArticle stores an article with a unique link
func (f *TestFixtures) CreateArticle(title string, published time.Time) *news.Article {
	f.t.Helper()

	a := &news.Article{
		Title:       title,
		Summary:     "summary of " + title,
		Link:        testsupport.UniqueLink(),
		PublishedAt: published,
		Source:      "Test Wire",
	}
	_, err := NewArticleRepository(f.tx).Upsert(context.Background(), a)
	require.NoError(f.t, err, "Failed to create test article")

	return a
}
