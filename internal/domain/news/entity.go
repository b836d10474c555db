package news

import (
	"time"
)

// Article is one news item gathered from a feed. Link is the dedup key.
type Article struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Summary     string    `db:"summary" json:"summary"`
	Link        string    `db:"link" json:"link"`
	PublishedAt time.Time `db:"published_date" json:"published_date"`
	Source      string    `db:"source" json:"source"`
}

// Text is the title and summary joined by a single space. Both may be empty.
func (a Article) Text() string {
	return a.Title + " " + a.Summary
}

// FeedFailure records a feed that could not be fetched or parsed
type FeedFailure struct {
	URL string
	Err error
}

// Batch is the result of one collection pass over all feeds
type Batch struct {
	Articles []Article
	Failures []FeedFailure
}

// MentionedArticle is an article linked to a coin, as served by the read API
type MentionedArticle struct {
	Article
	Mentions int `db:"mentions" json:"mentions"`
}

// ScoredArticle is an archived per-article scoring record
type ScoredArticle struct {
	RunID       string
	Date        time.Time
	Link        string
	Title       string
	Source      string
	PublishedAt time.Time
	Score       float64
	CoinIDs     []int64
	Mentions    []int32
}
