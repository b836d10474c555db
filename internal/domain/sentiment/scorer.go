package sentiment

// Scorer returns a compound polarity score in [-1, 1] for a text.
// Implementations must be deterministic and safe for concurrent use.
type Scorer interface {
	Score(text string) (float64, error)
}

// ScorerFunc adapts a function to Scorer
type ScorerFunc func(text string) (float64, error)

// Score implements Scorer
func (f ScorerFunc) Score(text string) (float64, error) {
	return f(text)
}
