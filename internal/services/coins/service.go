package coins

import (
	"context"

	"coinpulse/internal/domain/coin"
	"coinpulse/internal/domain/news"
	"coinpulse/internal/domain/sentiment"
	"coinpulse/internal/metrics"
	"coinpulse/pkg/errors"
	"coinpulse/pkg/logger"
)

const (
	// HistoryDays is the number of daily price and sentiment rows in coin details
	HistoryDays = 30

	DefaultArticleLimit = 10
	MaxArticleLimit     = 50
)

// Cache holds the unranked latest coin table
type Cache interface {
	Get(ctx context.Context) ([]coin.LatestRow, bool, error)
	Set(ctx context.Context, rows []coin.LatestRow) error
}

// Details is a coin with its recent history, newest first
type Details struct {
	Coin      *coin.Coin
	Prices    []coin.DailyPrice
	Sentiment []sentiment.Daily
}

// Service serves the read side: the ranked table, coin details and linked articles
type Service struct {
	coins     coin.Repository
	sentiment sentiment.Repository
	articles  news.Repository
	cache     Cache
	log       *logger.Logger
}

// NewService creates a read service. cache may be nil.
func NewService(
	coins coin.Repository,
	sentiment sentiment.Repository,
	articles news.Repository,
	cache Cache,
	log *logger.Logger,
) *Service {
	return &Service{
		coins:     coins,
		sentiment: sentiment,
		articles:  articles,
		cache:     cache,
		log:       log.With("component", "coins_service"),
	}
}

// Latest returns the latest coin table ranked by sentiment, then market cap
func (s *Service) Latest(ctx context.Context) ([]coin.LatestRow, error) {
	if s.cache != nil {
		rows, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			metrics.RecordCacheLookup("error")
			s.log.Warnw("Latest coin cache unavailable, reading database", "error", err)
		case ok:
			metrics.RecordCacheLookup("hit")
			return coin.Rank(rows), nil
		default:
			metrics.RecordCacheLookup("miss")
		}
	}

	rows, err := s.coins.Latest(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load latest coin data")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, rows); err != nil {
			s.log.Warnw("Failed to fill latest coin cache", "error", err)
		}
	}

	return coin.Rank(rows), nil
}

// Details returns the coin with its last HistoryDays prices and sentiment rows.
// Returns ErrNotFound for an unknown id.
func (s *Service) Details(ctx context.Context, coinID int64) (*Details, error) {
	c, err := s.coins.GetByID(ctx, coinID)
	if err != nil {
		return nil, err
	}

	prices, err := s.coins.RecentPrices(ctx, coinID, HistoryDays)
	if err != nil {
		return nil, errors.Wrap(err, "load price history")
	}

	daily, err := s.sentiment.RecentForCoin(ctx, coinID, HistoryDays)
	if err != nil {
		return nil, errors.Wrap(err, "load sentiment history")
	}

	return &Details{Coin: c, Prices: prices, Sentiment: daily}, nil
}

// Articles returns the newest articles mentioning the coin. limit is clamped to 1..MaxArticleLimit,
// zero or negative means DefaultArticleLimit.
func (s *Service) Articles(ctx context.Context, coinID int64, limit int) ([]news.MentionedArticle, error) {
	if _, err := s.coins.GetByID(ctx, coinID); err != nil {
		return nil, err
	}

	articles, err := s.articles.RecentForCoin(ctx, coinID, ClampLimit(limit))
	if err != nil {
		return nil, errors.Wrap(err, "load coin articles")
	}
	if articles == nil {
		articles = []news.MentionedArticle{}
	}
	return articles, nil
}

// ClampLimit applies the default and maximum article limits
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultArticleLimit
	case limit > MaxArticleLimit:
		return MaxArticleLimit
	default:
		return limit
	}
}
