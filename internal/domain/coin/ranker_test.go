package coin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestRank_NullsAndTies(t *testing.T) {
	rows := []LatestRow{
		{CoinID: 1, SentimentScore: nil, NoMentions: false, MarketCap: f(100)},
		{CoinID: 2, SentimentScore: f(0.8), MarketCap: f(50)},
		{CoinID: 3, SentimentScore: f(0.8), MarketCap: f(200)},
		{CoinID: 4, SentimentScore: f(0.2), NoMentions: true, MarketCap: f(999)},
	}

	ranked := Rank(rows)

	require.Len(t, ranked, 4)
	assert.Equal(t, []int64{3, 2, 4, 1}, ids(ranked))

	// input untouched
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(rows))
}

func TestRank_RealScoresBeatMarketCap(t *testing.T) {
	rows := []LatestRow{
		{CoinID: 1, SentimentScore: nil, MarketCap: f(1e12)},
		{CoinID: 2, SentimentScore: f(-1), MarketCap: nil},
		{CoinID: 3, SentimentScore: f(0.1), MarketCap: f(10)},
	}

	assert.Equal(t, []int64{3, 2, 1}, ids(Rank(rows)))
}

func TestRank_NilMarketCapIsZero(t *testing.T) {
	rows := []LatestRow{
		{CoinID: 1, SentimentScore: f(0.5), MarketCap: nil},
		{CoinID: 2, SentimentScore: f(0.5), MarketCap: f(-1)},
		{CoinID: 3, SentimentScore: f(0.5), MarketCap: f(1)},
	}

	assert.Equal(t, []int64{3, 1, 2}, ids(Rank(rows)))
}

func TestRank_StableForFullTies(t *testing.T) {
	rows := make([]LatestRow, 0, 20)
	for i := 0; i < 20; i++ {
		rows = append(rows, LatestRow{CoinID: int64(i), NoMentions: true})
	}

	ranked := Rank(rows)
	for i, row := range ranked {
		assert.Equal(t, int64(i), row.CoinID)
	}
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(nil))
	assert.Empty(t, Rank([]LatestRow{}))
}

func TestEffectiveScore(t *testing.T) {
	assert.Equal(t, NoSentimentSentinel, LatestRow{}.EffectiveScore())
	assert.Equal(t, NoSentimentSentinel, LatestRow{SentimentScore: f(0.3), NoMentions: true}.EffectiveScore())
	assert.Equal(t, 0.3, LatestRow{SentimentScore: f(0.3)}.EffectiveScore())
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	in := time.Date(2025, 3, 2, 5, 30, 0, 0, loc) // 2025-03-01 20:30 UTC

	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Day(in))
}

func ids(rows []LatestRow) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.CoinID
	}
	return out
}
