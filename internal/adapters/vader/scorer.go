package vader

import (
	"strings"

	"github.com/jonreiter/govader"

	"coinpulse/internal/domain/sentiment"
)

// Scorer computes the VADER compound polarity of English text.
// The lexicon is loaded once and only read afterwards, so Score is safe for concurrent use.
type Scorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

var _ sentiment.Scorer = (*Scorer)(nil)

func NewScorer() *Scorer {
	return &Scorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score returns the compound score in [-1, 1]. Blank text is neutral.
func (s *Scorer) Score(text string) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}
	return s.analyzer.PolarityScores(text).Compound, nil
}
