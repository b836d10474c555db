package clickhouse

import (
	"context"
	"fmt"
	"time"

	"coinpulse/internal/adapters/clickhouse"
	"coinpulse/internal/domain/news"
	"coinpulse/internal/metrics"
	"coinpulse/pkg/errors"
)

// Compile-time check
var _ news.Archive = (*ArticleArchive)(nil)

// DefaultArchiveTable is the table scored articles are archived into
const DefaultArchiveTable = "scored_articles"

// ArchiveDDL creates the archive table; %s is the table name
const ArchiveDDL = `
	CREATE TABLE IF NOT EXISTS %s (
		run_id       String,
		date         Date,
		link         String,
		title        String,
		source       LowCardinality(String),
		published_at DateTime64(3, 'UTC'),
		score        Float64,
		coin_ids     Array(Int64),
		mentions     Array(Int32)
	) ENGINE = MergeTree()
	PARTITION BY toYYYYMM(date)
	ORDER BY (date, link)`

// ArticleArchive implements news.Archive using ClickHouse batch inserts
type ArticleArchive struct {
	client *clickhouse.Client
	table  string
}

// NewArticleArchive creates an archive writing to table
func NewArticleArchive(client *clickhouse.Client, table string) *ArticleArchive {
	if table == "" {
		table = DefaultArchiveTable
	}
	return &ArticleArchive{client: client, table: table}
}

// EnsureSchema creates the archive table if missing
func (a *ArticleArchive) EnsureSchema(ctx context.Context) error {
	if err := a.client.Exec(ctx, fmt.Sprintf(ArchiveDDL, a.table)); err != nil {
		return errors.Wrapf(err, "create clickhouse table %s", a.table)
	}
	return nil
}

// InsertBatch appends all articles in a single batch
func (a *ArticleArchive) InsertBatch(ctx context.Context, articles []news.ScoredArticle) error {
	if len(articles) == 0 {
		return nil
	}

	start := time.Now()
	err := a.insert(ctx, articles)
	metrics.RecordDBQuery("clickhouse", "scored_articles_insert", time.Since(start), err)
	return err
}

func (a *ArticleArchive) insert(ctx context.Context, articles []news.ScoredArticle) error {
	batch, err := a.client.PrepareBatch(ctx, fmt.Sprintf(
		"INSERT INTO %s (run_id, date, link, title, source, published_at, score, coin_ids, mentions)", a.table,
	))
	if err != nil {
		return errors.Wrap(err, "prepare archive batch")
	}
	defer func() { _ = batch.Abort() }()

	for _, art := range articles {
		coinIDs := art.CoinIDs
		if coinIDs == nil {
			coinIDs = []int64{}
		}
		mentions := art.Mentions
		if mentions == nil {
			mentions = []int32{}
		}

		if err := batch.Append(
			art.RunID,
			art.Date.UTC(),
			art.Link,
			art.Title,
			art.Source,
			art.PublishedAt.UTC(),
			art.Score,
			coinIDs,
			mentions,
		); err != nil {
			return errors.Wrapf(err, "append archive row %s", art.Link)
		}
	}

	if err := batch.Send(); err != nil {
		return errors.Wrapf(err, "send archive batch of %d", len(articles))
	}
	return nil
}
