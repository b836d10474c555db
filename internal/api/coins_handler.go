package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"coinpulse/internal/domain/coin"
	"coinpulse/internal/domain/news"
	"coinpulse/internal/services/coins"
	"coinpulse/pkg/errors"
	"coinpulse/pkg/logger"
)

// CoinReader is the read side served by the coin endpoints
type CoinReader interface {
	Latest(ctx context.Context) ([]coin.LatestRow, error)
	Details(ctx context.Context, coinID int64) (*coins.Details, error)
	Articles(ctx context.Context, coinID int64, limit int) ([]news.MentionedArticle, error)
}

// PricePoint is one daily price in coin details
type PricePoint struct {
	Date      string   `json:"date"`
	PriceUSD  *float64 `json:"price_usd"`
	MarketCap *float64 `json:"market_cap"`
}

// SentimentPoint is one daily sentiment row in coin details
type SentimentPoint struct {
	Date           string   `json:"date"`
	SentimentScore *float64 `json:"sentiment_score"`
	MentionsCount  int      `json:"mentions_count"`
	NoMentions     bool     `json:"no_mentions"`
}

// CoinDetailsResponse is the payload of GET /api/coins/{id}
type CoinDetailsResponse struct {
	Coin            *coin.Coin       `json:"coin"`
	RecentPrices    []PricePoint     `json:"recent_prices"`
	RecentSentiment []SentimentPoint `json:"recent_sentiment"`
}

// CoinsHandler serves the coin endpoints
type CoinsHandler struct {
	reader CoinReader
	log    *logger.Logger
}

// NewCoinsHandler creates the coin endpoint handler
func NewCoinsHandler(reader CoinReader, log *logger.Logger) *CoinsHandler {
	return &CoinsHandler{reader: reader, log: log.With("component", "coins_api")}
}

// HandleList serves the ranked latest table
func (h *CoinsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reader.Latest(r.Context())
	if err != nil {
		h.fail(w, err, "Error fetching coin data")
		return
	}
	if rows == nil {
		rows = []coin.LatestRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleDetails serves one coin with 30 days of prices and sentiment
func (h *CoinsHandler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := coinID(w, r)
	if !ok {
		return
	}

	details, err := h.reader.Details(r.Context(), id)
	if err != nil {
		h.fail(w, err, "Error fetching coin details")
		return
	}

	resp := CoinDetailsResponse{
		Coin:            details.Coin,
		RecentPrices:    make([]PricePoint, 0, len(details.Prices)),
		RecentSentiment: make([]SentimentPoint, 0, len(details.Sentiment)),
	}
	for _, p := range details.Prices {
		resp.RecentPrices = append(resp.RecentPrices, PricePoint{
			Date:      p.Date.UTC().Format(time.DateOnly),
			PriceUSD:  nullFloat(p.PriceUSD),
			MarketCap: nullFloat(p.MarketCap),
		})
	}
	for _, s := range details.Sentiment {
		resp.RecentSentiment = append(resp.RecentSentiment, SentimentPoint{
			Date:           s.Date.UTC().Format(time.DateOnly),
			SentimentScore: s.SentimentScore,
			MentionsCount:  s.MentionsCount,
			NoMentions:     s.NoMentions,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleArticles serves the newest articles mentioning a coin, ?limit= 1..50
func (h *CoinsHandler) HandleArticles(w http.ResponseWriter, r *http.Request) {
	id, ok := coinID(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	articles, err := h.reader.Articles(r.Context(), id, limit)
	if err != nil {
		h.fail(w, err, "Error fetching coin articles")
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

func (h *CoinsHandler) fail(w http.ResponseWriter, err error, detail string) {
	if errors.Is(err, errors.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Coin not found")
		return
	}
	h.log.Errorw(detail, "error", err)
	writeError(w, http.StatusInternalServerError, detail)
}

func coinID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "coin id must be a positive integer")
		return 0, false
	}
	return id, true
}

func nullFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
