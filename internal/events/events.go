package events

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"coinpulse/internal/domain/sentiment"
)

// Event type constants
const (
	TypeDailySentimentUpdated = "sentiment.daily_updated"
	TypeDailyRunFailed        = "sentiment.daily_run_failed"
)

// BaseEvent carries the fields shared by every event
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
}

// NewBaseEvent creates a new base event with defaults
func NewBaseEvent(eventType, source string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    source,
		Version:   "1.0",
	}
}

// CoinSentiment is one coin's row in a daily update
type CoinSentiment struct {
	CoinID        int64    `json:"coin_id"`
	Symbol        string   `json:"symbol"`
	Score         *float64 `json:"sentiment_score"`
	MentionsCount int      `json:"mentions_count"`
	NoMentions    bool     `json:"no_mentions"`
}

// DailySentimentUpdated is emitted after a daily run stored its snapshot
type DailySentimentUpdated struct {
	BaseEvent
	RunID           string          `json:"run_id"`
	Date            string          `json:"date"`
	ArticlesScored  int             `json:"articles_scored"`
	ArticlesSkipped int             `json:"articles_skipped"`
	Coins           []CoinSentiment `json:"coins"`
}

// DailyRunFailed is emitted when a daily run aborts before storing a snapshot
type DailyRunFailed struct {
	BaseEvent
	RunID  string `json:"run_id"`
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// NewDailySentimentUpdated builds the event from stored daily rows.
// symbols maps coin id to ticker; unknown ids get an empty symbol.
func NewDailySentimentUpdated(runID string, date time.Time, rows []sentiment.Daily, symbols map[int64]string, scored, skipped int) *DailySentimentUpdated {
	coins := make([]CoinSentiment, 0, len(rows))
	for _, r := range rows {
		coins = append(coins, CoinSentiment{
			CoinID:        r.CoinID,
			Symbol:        sanitizeUTF8(symbols[r.CoinID]),
			Score:         r.SentimentScore,
			MentionsCount: r.MentionsCount,
			NoMentions:    r.NoMentions,
		})
	}

	return &DailySentimentUpdated{
		BaseEvent:       NewBaseEvent(TypeDailySentimentUpdated, "daily_update"),
		RunID:           runID,
		Date:            date.UTC().Format(time.DateOnly),
		ArticlesScored:  scored,
		ArticlesSkipped: skipped,
		Coins:           coins,
	}
}

// NewDailyRunFailed builds a failure event
func NewDailyRunFailed(runID string, date time.Time, reason error) *DailyRunFailed {
	msg := ""
	if reason != nil {
		msg = sanitizeUTF8(reason.Error())
	}
	return &DailyRunFailed{
		BaseEvent: NewBaseEvent(TypeDailyRunFailed, "daily_update"),
		RunID:     runID,
		Date:      date.UTC().Format(time.DateOnly),
		Reason:    msg,
	}
}

// sanitizeUTF8 drops invalid byte sequences; feed and API text is not always clean
func sanitizeUTF8(s string) string {
	return strings.ToValidUTF8(s, "")
}
