package daily

import (
	"time"
)

// Stages of a daily run, used to label item failures
const (
	StageCoin      = "coin"
	StagePrice     = "price"
	StageFeed      = "feed"
	StageArticle   = "article"
	StageSentiment = "sentiment"
	StageMentions  = "article_mentions"
	StageCache     = "cache"
	StageArchive   = "archive"
	StagePublish   = "publish"
)

// ItemFailure is one unit of work that was skipped without aborting the run
type ItemFailure struct {
	Stage string
	Key   string
	Err   error
}

// Report summarizes one daily run
type Report struct {
	RunID      string
	Date       time.Time
	StartedAt  time.Time
	FinishedAt time.Time

	CoinsFetched    int
	CoinsStored     int
	ArticlesFetched int
	ArticlesStored  int
	ArticlesScored  int
	ArticlesSkipped int
	ScoringFailures int
	TotalMentions   int
	CoinsMentioned  int
	CoinsUpdated    int

	Failures []ItemFailure

	// Err is set when the run aborted
	Err error
}

// Failed reports whether the run aborted
func (r *Report) Failed() bool {
	return r.Err != nil
}

// Outcome is the metric label for the run
func (r *Report) Outcome() string {
	switch {
	case r.Err != nil:
		return "failed"
	case len(r.Failures) > 0 || r.ScoringFailures > 0:
		return "partial"
	default:
		return "success"
	}
}

// FailuresByStage counts item failures per stage
func (r *Report) FailuresByStage() map[string]int {
	out := make(map[string]int)
	for _, f := range r.Failures {
		out[f.Stage]++
	}
	return out
}

// Duration is the wall time of the run
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
