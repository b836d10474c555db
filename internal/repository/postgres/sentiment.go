package postgres

import (
	"context"
	"time"

	"coinpulse/internal/domain/coin"
	"coinpulse/internal/domain/sentiment"
	"coinpulse/internal/metrics"
	"coinpulse/pkg/errors"
)

// Compile-time check
var _ sentiment.Repository = (*SentimentRepository)(nil)

// SentimentRepository implements sentiment.Repository using sqlx
type SentimentRepository struct {
	db DBTX
}

// NewSentimentRepository creates a new sentiment repository
func NewSentimentRepository(db DBTX) *SentimentRepository {
	return &SentimentRepository{db: db}
}

// UpsertDaily writes the snapshot for (coin_id, date)
func (r *SentimentRepository) UpsertDaily(ctx context.Context, row *sentiment.Daily) error {
	if row.SentimentScore == nil && !row.NoMentions {
		return errors.Wrapf(errors.ErrInvalidInput, "coin %d has mentions but no score", row.CoinID)
	}

	query := `
		INSERT INTO coin_sentiment (coin_id, date, sentiment_score, mentions_count, no_mentions)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (coin_id, date) DO UPDATE SET
			sentiment_score = EXCLUDED.sentiment_score,
			mentions_count = EXCLUDED.mentions_count,
			no_mentions = EXCLUDED.no_mentions`

	start := time.Now()
	_, err := r.db.ExecContext(ctx, query,
		row.CoinID, coin.Day(row.Date), row.SentimentScore, row.MentionsCount, row.NoMentions,
	)
	metrics.RecordDBQuery("postgres", "coin_sentiment_upsert", time.Since(start), err)
	if err != nil {
		return errors.Wrapf(err, "upsert sentiment for coin %d", row.CoinID)
	}

	return nil
}

// RecentForCoin returns the newest daily rows of a coin, newest first
func (r *SentimentRepository) RecentForCoin(ctx context.Context, coinID int64, limit int) ([]sentiment.Daily, error) {
	var rows []sentiment.Daily

	query := `
		SELECT coin_id, date, sentiment_score, mentions_count, no_mentions
		FROM coin_sentiment
		WHERE coin_id = $1
		ORDER BY date DESC
		LIMIT $2`

	if err := r.db.SelectContext(ctx, &rows, query, coinID, limit); err != nil {
		return nil, errors.Wrapf(err, "recent sentiment for coin %d", coinID)
	}

	return rows, nil
}

// SaveArticleMentions upserts article/coin links in one statement
func (r *SentimentRepository) SaveArticleMentions(ctx context.Context, links []sentiment.ArticleMention) error {
	if len(links) == 0 {
		return nil
	}

	query := `
		INSERT INTO article_mentions (article_id, coin_id, mentions, sentiment_score)
		VALUES (:article_id, :coin_id, :mentions, :sentiment_score)
		ON CONFLICT (article_id, coin_id) DO UPDATE SET
			mentions = EXCLUDED.mentions,
			sentiment_score = EXCLUDED.sentiment_score`

	start := time.Now()
	_, err := r.db.NamedExecContext(ctx, query, links)
	metrics.RecordDBQuery("postgres", "article_mentions_upsert", time.Since(start), err)
	if err != nil {
		return errors.Wrapf(err, "save %d article mentions", len(links))
	}

	return nil
}

// LatestDate returns the newest date with sentiment rows, zero when the table is empty
func (r *SentimentRepository) LatestDate(ctx context.Context) (time.Time, error) {
	var latest *time.Time

	if err := r.db.GetContext(ctx, &latest, `SELECT MAX(date) FROM coin_sentiment`); err != nil {
		return time.Time{}, errors.Wrap(err, "latest sentiment date")
	}
	if latest == nil {
		return time.Time{}, nil
	}

	return latest.UTC(), nil
}
