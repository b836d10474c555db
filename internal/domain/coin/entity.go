package coin

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coin is a tracked asset. ExternalID is the CoinGecko id (e.g. "bitcoin").
type Coin struct {
	ID         int64     `db:"id" json:"coin_id"`
	ExternalID string    `db:"coingecko_id" json:"coingecko_id"`
	Symbol     string    `db:"symbol" json:"symbol"`
	Name       string    `db:"name" json:"name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Quote is one row of the market-data feed for the top coins by market cap
type Quote struct {
	ExternalID  string
	Symbol      string
	Name        string
	PriceUSD    decimal.NullDecimal
	MarketCap   decimal.NullDecimal
	LastUpdated time.Time
}

// DailyPrice is the stored price snapshot of a coin for one calendar day
type DailyPrice struct {
	CoinID    int64               `db:"coin_id"`
	Date      time.Time           `db:"date"`
	PriceUSD  decimal.NullDecimal `db:"price_usd"`
	MarketCap decimal.NullDecimal `db:"market_cap"`
}

// LatestRow joins a coin with its latest price and latest sentiment
type LatestRow struct {
	CoinID         int64    `db:"coin_id" json:"coin_id"`
	ExternalID     string   `db:"coingecko_id" json:"coingecko_id"`
	Symbol         string   `db:"symbol" json:"symbol"`
	Name           string   `db:"name" json:"name"`
	PriceUSD       *float64 `db:"price_usd" json:"price_usd"`
	MarketCap      *float64 `db:"market_cap" json:"market_cap"`
	SentimentScore *float64 `db:"sentiment_score" json:"sentiment_score"`
	MentionsCount  int      `db:"mentions_count" json:"mentions_count"`
	NoMentions     bool     `db:"no_mentions" json:"no_mentions"`
}

// Day truncates t to midnight UTC, the key used for daily rows
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
