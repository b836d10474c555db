package coin

import "sort"

// NoSentimentSentinel ranks rows without a usable score below every real score (valid range is [-1, 1])
const NoSentimentSentinel = -999.0

// EffectiveScore is the sentiment used for ordering: the score when present and backed by mentions,
// the sentinel otherwise.
func (r LatestRow) EffectiveScore() float64 {
	if r.SentimentScore == nil || r.NoMentions {
		return NoSentimentSentinel
	}
	return *r.SentimentScore
}

// EffectiveMarketCap treats a missing market cap as zero
func (r LatestRow) EffectiveMarketCap() float64 {
	if r.MarketCap == nil {
		return 0
	}
	return *r.MarketCap
}

// Rank orders rows by effective sentiment, then market cap, both descending.
// Equal rows keep their input order. The input slice is not modified.
func Rank(rows []LatestRow) []LatestRow {
	ranked := make([]LatestRow, len(rows))
	copy(ranked, rows)

	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := ranked[i].EffectiveScore(), ranked[j].EffectiveScore()
		if si != sj {
			return si > sj
		}
		return ranked[i].EffectiveMarketCap() > ranked[j].EffectiveMarketCap()
	})

	return ranked
}
