package postgres

import (
	"context"
	"time"

	"coinpulse/internal/domain/news"
	"coinpulse/internal/metrics"
	"coinpulse/pkg/errors"
)

// Compile-time check
var _ news.Repository = (*ArticleRepository)(nil)

// ArticleRepository implements news.Repository using sqlx
type ArticleRepository struct {
	db DBTX
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db DBTX) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// Upsert stores the article keyed by link. The first stored copy wins; the id is returned either way.
func (r *ArticleRepository) Upsert(ctx context.Context, article *news.Article) (int64, error) {
	if article.Link == "" {
		return 0, errors.Wrap(errors.ErrInvalidInput, "article link is empty")
	}

	// DO UPDATE with a no-op assignment so RETURNING yields the existing id
	query := `
		INSERT INTO articles (title, summary, link, published_date, source)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (link) DO UPDATE SET link = EXCLUDED.link
		RETURNING id`

	var id int64
	start := time.Now()
	err := r.db.GetContext(ctx, &id, query,
		article.Title, article.Summary, article.Link, article.PublishedAt.UTC(), article.Source,
	)
	metrics.RecordDBQuery("postgres", "articles_upsert", time.Since(start), err)
	if err != nil {
		return 0, errors.Wrapf(err, "upsert article %s", article.Link)
	}

	article.ID = id
	return id, nil
}

// RecentForCoin returns the newest articles linked to a coin, newest first
func (r *ArticleRepository) RecentForCoin(ctx context.Context, coinID int64, limit int) ([]news.MentionedArticle, error) {
	var articles []news.MentionedArticle

	query := `
		SELECT a.id, a.title, a.summary, a.link, a.published_date, a.source, m.mentions
		FROM articles a
		JOIN article_mentions m ON m.article_id = a.id
		WHERE m.coin_id = $1
		ORDER BY a.published_date DESC, a.id DESC
		LIMIT $2`

	if err := r.db.SelectContext(ctx, &articles, query, coinID, limit); err != nil {
		return nil, errors.Wrapf(err, "recent articles for coin %d", coinID)
	}

	return articles, nil
}
