package news

import (
	"context"
)

// Repository persists articles deduplicated by link
type Repository interface {
	// Upsert stores the article and returns its id. An existing link keeps its row.
	Upsert(ctx context.Context, article *Article) (int64, error)
	// RecentForCoin returns the newest articles linked to a coin
	RecentForCoin(ctx context.Context, coinID int64, limit int) ([]MentionedArticle, error)
}

// Source collects recent articles from all configured feeds
type Source interface {
	Collect(ctx context.Context) (*Batch, error)
}

// Archive stores scored articles for offline analysis
type Archive interface {
	InsertBatch(ctx context.Context, articles []ScoredArticle) error
}
