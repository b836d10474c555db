package sentiment

import (
	"context"
	"time"
)

// ArticleMention links a stored article to a coin it mentions
type ArticleMention struct {
	ArticleID int64   `db:"article_id"`
	CoinID    int64   `db:"coin_id"`
	Mentions  int     `db:"mentions"`
	Score     float64 `db:"sentiment_score"`
}

// Repository persists daily per-coin sentiment
type Repository interface {
	// UpsertDaily writes the snapshot for (coin_id, date), replacing an earlier run of the same day
	UpsertDaily(ctx context.Context, row *Daily) error
	RecentForCoin(ctx context.Context, coinID int64, limit int) ([]Daily, error)
	SaveArticleMentions(ctx context.Context, links []ArticleMention) error
	// LatestDate returns the most recent date with sentiment rows, zero time when none
	LatestDate(ctx context.Context) (time.Time, error)
}
