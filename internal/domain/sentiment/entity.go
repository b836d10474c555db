package sentiment

import (
	"time"

	"coinpulse/internal/domain/news"
)

// RosterCoin is the subset of a coin the matcher needs
type RosterCoin struct {
	ID     int64
	Symbol string
	Name   string
}

// Mention is the number of whole-word hits of one coin in one text
type Mention struct {
	CoinID   int64
	Mentions int
}

// Accumulator collects mention-weighted samples for one coin during a run.
// Score is nil exactly when HasMentions is false.
type Accumulator struct {
	CoinID        int64
	TotalMentions int
	Samples       []float64
	Score         *float64
	HasMentions   bool
}

func (a *Accumulator) add(score float64, mentions int) {
	a.TotalMentions += mentions
	a.HasMentions = true
	for i := 0; i < mentions; i++ {
		a.Samples = append(a.Samples, score)
	}
}

func (a *Accumulator) finalize() {
	if len(a.Samples) == 0 {
		a.Score = nil
		a.HasMentions = false
		return
	}
	var sum float64
	for _, s := range a.Samples {
		sum += s
	}
	mean := sum / float64(len(a.Samples))
	a.Score = &mean
}

// ArticleScore is the scoring outcome for an article that mentioned at least one coin
type ArticleScore struct {
	Article  news.Article
	Score    float64
	Mentions []Mention
}

// Result is the output of one aggregation run
type Result struct {
	Date            time.Time
	Coins           map[int64]Accumulator
	Articles        []ArticleScore
	Skipped         int // articles mentioning no coin
	ScoringFailures int
}

// MentionedCoins counts coins with at least one mention
func (r *Result) MentionedCoins() int {
	n := 0
	for _, acc := range r.Coins {
		if acc.HasMentions {
			n++
		}
	}
	return n
}

// TotalMentions sums mentions over all coins
func (r *Result) TotalMentions() int {
	n := 0
	for _, acc := range r.Coins {
		n += acc.TotalMentions
	}
	return n
}

// Daily is the persisted snapshot of an accumulator for (coin_id, date)
type Daily struct {
	CoinID         int64     `db:"coin_id" json:"coin_id"`
	Date           time.Time `db:"date" json:"date"`
	SentimentScore *float64  `db:"sentiment_score" json:"sentiment_score"`
	MentionsCount  int       `db:"mentions_count" json:"mentions_count"`
	NoMentions     bool      `db:"no_mentions" json:"no_mentions"`
}

// Snapshot converts the accumulator into its persisted form
func (a Accumulator) Snapshot(date time.Time) Daily {
	return Daily{
		CoinID:         a.CoinID,
		Date:           date,
		SentimentScore: a.Score,
		MentionsCount:  a.TotalMentions,
		NoMentions:     !a.HasMentions,
	}
}
