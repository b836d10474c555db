package coin

import (
	"context"
)

// Repository defines persistence for coins, their daily prices and the latest joined table
type Repository interface {
	// Upsert inserts the coin or refreshes symbol/name, keyed by external id
	Upsert(ctx context.Context, externalID, symbol, name string) (*Coin, error)
	GetByID(ctx context.Context, id int64) (*Coin, error)
	List(ctx context.Context) ([]Coin, error)

	// UpsertDailyPrice writes the price for (coin_id, date), replacing an earlier value
	UpsertDailyPrice(ctx context.Context, price *DailyPrice) error
	RecentPrices(ctx context.Context, coinID int64, limit int) ([]DailyPrice, error)

	// Latest returns one row per coin with its newest price and sentiment, unordered
	Latest(ctx context.Context) ([]LatestRow, error)
}

// MarketSource returns the top coins by market capitalization
type MarketSource interface {
	TopCoins(ctx context.Context, limit int) ([]Quote, error)
}
