package sentiment

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinpulse/internal/domain/news"
	pkgerrors "coinpulse/pkg/errors"
	"coinpulse/pkg/logger"
)

// fixedScorer returns a score per exact text and counts calls
type fixedScorer struct {
	scores   map[string]float64
	fallback float64
	calls    atomic.Int32
}

func (s *fixedScorer) Score(text string) (float64, error) {
	s.calls.Add(1)
	if v, ok := s.scores[text]; ok {
		return v, nil
	}
	return s.fallback, nil
}

var asOf = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func article(title, summary string) news.Article {
	return news.Article{Title: title, Summary: summary, Link: "https://news.example/" + title}
}

func TestAggregate_MentionWeightedAveraging(t *testing.T) {
	a := article("Bitcoin surges", "BTC holders cheer")
	scorer := &fixedScorer{scores: map[string]float64{a.Text(): 0.6}}

	res := NewAggregator(scorer, 1, logger.NewNop()).Aggregate([]news.Article{a}, testRoster, asOf)

	btc := res.Coins[1]
	assert.Equal(t, []float64{0.6, 0.6}, btc.Samples)
	require.NotNil(t, btc.Score)
	assert.InDelta(t, 0.6, *btc.Score, 1e-9)
	assert.Equal(t, 2, btc.TotalMentions)
	assert.True(t, btc.HasMentions)
}

func TestAggregate_WeightsAcrossArticles(t *testing.T) {
	a1 := article("Ethereum ETH ETH", "")
	a2 := article("Ethereum slips", "")
	scorer := &fixedScorer{scores: map[string]float64{a1.Text(): 0.9, a2.Text(): -0.3}}

	res := NewAggregator(scorer, 1, logger.NewNop()).Aggregate([]news.Article{a1, a2}, testRoster, asOf)

	eth := res.Coins[2]
	assert.Equal(t, 4, eth.TotalMentions)
	require.NotNil(t, eth.Score)
	// (0.9*3 + -0.3) / 4
	assert.InDelta(t, 0.6, *eth.Score, 1e-9)
}

func TestAggregate_NullForNoMentions(t *testing.T) {
	scorer := &fixedScorer{fallback: 0.5}
	articles := []news.Article{article("Bitcoin news", "")}

	res := NewAggregator(scorer, 1, logger.NewNop()).Aggregate(articles, testRoster, asOf)

	require.Len(t, res.Coins, len(testRoster))
	sol := res.Coins[3]
	assert.Nil(t, sol.Score)
	assert.False(t, sol.HasMentions)
	assert.Zero(t, sol.TotalMentions)
	assert.Empty(t, sol.Samples)
}

func TestAggregate_UnmentionedArticleIsNotScored(t *testing.T) {
	scorer := &fixedScorer{fallback: 0.9}
	articles := []news.Article{
		article("Markets are calm", "nothing about tracked coins"),
		article("Stocks rally", ""),
	}

	res := NewAggregator(scorer, 1, logger.NewNop()).Aggregate(articles, testRoster, asOf)

	assert.Equal(t, int32(0), scorer.calls.Load())
	assert.Equal(t, 2, res.Skipped)
	assert.Empty(t, res.Articles)
	for _, acc := range res.Coins {
		assert.Empty(t, acc.Samples)
	}
}

func TestAggregate_ScoresEachArticleOnce(t *testing.T) {
	scorer := &fixedScorer{fallback: 0.1}
	articles := []news.Article{
		article("Bitcoin and Ethereum and Solana", "BTC ETH SOL"),
	}

	res := NewAggregator(scorer, 1, logger.NewNop()).Aggregate(articles, testRoster, asOf)

	assert.Equal(t, int32(1), scorer.calls.Load())
	assert.Equal(t, 3, res.MentionedCoins())
	assert.Equal(t, 6, res.TotalMentions())
}

func TestAggregate_Idempotent(t *testing.T) {
	scorer := &fixedScorer{fallback: -0.25}
	articles := []news.Article{
		article("Bitcoin", "Solana"),
		article("ETH", "eth"),
	}
	agg := NewAggregator(scorer, 1, logger.NewNop())

	first := agg.Aggregate(articles, testRoster, asOf)
	second := agg.Aggregate(articles, testRoster, asOf)

	assert.Equal(t, first.Coins, second.Coins)
}

func TestAggregate_EmptyBatch(t *testing.T) {
	scorer := &fixedScorer{}

	res := NewAggregator(scorer, 4, logger.NewNop()).Aggregate(nil, testRoster, asOf)

	require.Len(t, res.Coins, 3)
	for _, c := range testRoster {
		acc, ok := res.Coins[c.ID]
		require.True(t, ok)
		assert.Equal(t, c.ID, acc.CoinID)
		assert.Nil(t, acc.Score)
		assert.False(t, acc.HasMentions)
	}
	assert.Equal(t, asOf, res.Date)
}

func TestAggregate_DuplicateRosterEntries(t *testing.T) {
	roster := append([]RosterCoin{}, testRoster...)
	roster = append(roster, RosterCoin{ID: 1, Symbol: "BTC", Name: "Bitcoin"})
	scorer := &fixedScorer{fallback: 0.2}

	res := NewAggregator(scorer, 1, logger.NewNop()).Aggregate([]news.Article{article("Bitcoin", "")}, roster, asOf)

	assert.Len(t, res.Coins, 3)
	assert.Equal(t, 1, res.Coins[1].TotalMentions)
}

func TestAggregate_ScoringFailureSkipsArticle(t *testing.T) {
	bad := article("Bitcoin crash", "")
	good := article("Bitcoin recovers", "")

	scorer := ScorerFunc(func(text string) (float64, error) {
		switch text {
		case bad.Text():
			return 0, errors.New("unscoreable")
		default:
			return 0.4, nil
		}
	})

	res := NewAggregator(scorer, 1, logger.NewNop()).Aggregate([]news.Article{bad, good}, testRoster, asOf)

	assert.Equal(t, 1, res.ScoringFailures)
	btc := res.Coins[1]
	assert.Equal(t, 1, btc.TotalMentions)
	assert.Equal(t, []float64{0.4}, btc.Samples)
	require.Len(t, res.Articles, 1)
	assert.Equal(t, good.Link, res.Articles[0].Article.Link)
}

func TestAggregate_PanicAndOutOfRangeAreFailures(t *testing.T) {
	articles := []news.Article{
		article("Bitcoin panic", ""),
		article("Bitcoin nan", ""),
		article("Bitcoin huge", ""),
	}
	scorer := ScorerFunc(func(text string) (float64, error) {
		switch text {
		case articles[0].Text():
			panic("lexicon exploded")
		case articles[1].Text():
			return math.NaN(), nil
		default:
			return 3, nil
		}
	})

	agg := NewAggregator(scorer, 1, logger.NewNop())
	res := agg.Aggregate(articles, testRoster, asOf)

	assert.Equal(t, 3, res.ScoringFailures)
	assert.False(t, res.Coins[1].HasMentions)
	assert.Nil(t, res.Coins[1].Score)

	_, err := agg.score(articles[0].Text())
	assert.True(t, pkgerrors.Is(err, pkgerrors.ErrScoringFailed))
}

func TestAggregate_ParallelMatchesSequential(t *testing.T) {
	articles := make([]news.Article, 0, 200)
	scores := make(map[string]float64)
	names := []string{"Bitcoin", "ETH", "Solana", "nothing", "BTC SOL"}
	for i := 0; i < 200; i++ {
		a := article(fmt.Sprintf("%s #%d", names[i%len(names)], i), "")
		articles = append(articles, a)
		scores[a.Text()] = float64(i%21-10) / 10
	}

	seq := NewAggregator(&fixedScorer{scores: scores}, 1, logger.NewNop()).Aggregate(articles, testRoster, asOf)
	par := NewAggregator(&fixedScorer{scores: scores}, 8, logger.NewNop()).Aggregate(articles, testRoster, asOf)

	assert.Equal(t, seq.Coins, par.Coins)
	assert.Equal(t, seq.Articles, par.Articles)
	assert.Equal(t, seq.Skipped, par.Skipped)
}

func TestAccumulator_Snapshot(t *testing.T) {
	score := 0.25
	acc := Accumulator{CoinID: 7, TotalMentions: 4, Score: &score, HasMentions: true}

	row := acc.Snapshot(asOf)
	assert.Equal(t, int64(7), row.CoinID)
	assert.Equal(t, 4, row.MentionsCount)
	assert.False(t, row.NoMentions)
	assert.Equal(t, &score, row.SentimentScore)

	empty := Accumulator{CoinID: 8}.Snapshot(asOf)
	assert.True(t, empty.NoMentions)
	assert.Nil(t, empty.SentimentScore)
}
