package postgres

import (
	"context"
	"database/sql"
	"time"

	"coinpulse/internal/domain/coin"
	"coinpulse/internal/metrics"
	"coinpulse/pkg/errors"
)

// Compile-time check
var _ coin.Repository = (*CoinRepository)(nil)

// CoinRepository implements coin.Repository using sqlx
type CoinRepository struct {
	db DBTX
}

// NewCoinRepository creates a new coin repository
func NewCoinRepository(db DBTX) *CoinRepository {
	return &CoinRepository{db: db}
}

// Upsert inserts a coin or refreshes its symbol and name
func (r *CoinRepository) Upsert(ctx context.Context, externalID, symbol, name string) (*coin.Coin, error) {
	if externalID == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "coin external id is empty")
	}

	query := `
		INSERT INTO coins (coingecko_id, symbol, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (coingecko_id) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			name = EXCLUDED.name,
			updated_at = NOW()
		RETURNING id, coingecko_id, symbol, name, created_at`

	var c coin.Coin
	start := time.Now()
	err := r.db.GetContext(ctx, &c, query, externalID, symbol, name)
	metrics.RecordDBQuery("postgres", "coins_upsert", time.Since(start), err)
	if err != nil {
		return nil, errors.Wrapf(err, "upsert coin %s", externalID)
	}

	return &c, nil
}

// GetByID retrieves a coin by id
func (r *CoinRepository) GetByID(ctx context.Context, id int64) (*coin.Coin, error) {
	var c coin.Coin

	query := `SELECT id, coingecko_id, symbol, name, created_at FROM coins WHERE id = $1`

	err := r.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(errors.ErrNotFound, "coin %d", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get coin %d", id)
	}

	return &c, nil
}

// List returns every tracked coin ordered by id
func (r *CoinRepository) List(ctx context.Context) ([]coin.Coin, error) {
	var coins []coin.Coin

	query := `SELECT id, coingecko_id, symbol, name, created_at FROM coins ORDER BY id`

	if err := r.db.SelectContext(ctx, &coins, query); err != nil {
		return nil, errors.Wrap(err, "list coins")
	}

	return coins, nil
}

// UpsertDailyPrice writes the snapshot for (coin_id, date)
func (r *CoinRepository) UpsertDailyPrice(ctx context.Context, price *coin.DailyPrice) error {
	query := `
		INSERT INTO coin_prices (coin_id, date, price_usd, market_cap)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (coin_id, date) DO UPDATE SET
			price_usd = EXCLUDED.price_usd,
			market_cap = EXCLUDED.market_cap`

	start := time.Now()
	_, err := r.db.ExecContext(ctx, query,
		price.CoinID, coin.Day(price.Date), price.PriceUSD, price.MarketCap,
	)
	metrics.RecordDBQuery("postgres", "coin_prices_upsert", time.Since(start), err)
	if err != nil {
		return errors.Wrapf(err, "upsert price for coin %d", price.CoinID)
	}

	return nil
}

// RecentPrices returns the newest daily prices of a coin, newest first
func (r *CoinRepository) RecentPrices(ctx context.Context, coinID int64, limit int) ([]coin.DailyPrice, error) {
	var prices []coin.DailyPrice

	query := `
		SELECT coin_id, date, price_usd, market_cap
		FROM coin_prices
		WHERE coin_id = $1
		ORDER BY date DESC
		LIMIT $2`

	if err := r.db.SelectContext(ctx, &prices, query, coinID, limit); err != nil {
		return nil, errors.Wrapf(err, "recent prices for coin %d", coinID)
	}

	return prices, nil
}

// Latest reads the latest_coin_data view
func (r *CoinRepository) Latest(ctx context.Context) ([]coin.LatestRow, error) {
	var rows []coin.LatestRow

	query := `
		SELECT coin_id, coingecko_id, symbol, name, price_usd, market_cap,
		       sentiment_score, mentions_count, no_mentions
		FROM latest_coin_data
		ORDER BY coin_id`

	start := time.Now()
	err := r.db.SelectContext(ctx, &rows, query)
	metrics.RecordDBQuery("postgres", "latest_coin_data", time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(err, "read latest coin data")
	}

	return rows, nil
}
