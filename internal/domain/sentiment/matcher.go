package sentiment

import (
	"regexp"
	"strings"
)

type coinPatterns struct {
	coinID int64
	name   *regexp.Regexp
	symbol *regexp.Regexp
}

// Matcher finds whole-word, case-insensitive mentions of roster coins in text.
// Patterns are compiled once per roster; a Matcher is safe for concurrent use.
type Matcher struct {
	patterns []coinPatterns
}

// NewMatcher compiles the name and symbol patterns for every coin in roster order
func NewMatcher(roster []RosterCoin) *Matcher {
	m := &Matcher{patterns: make([]coinPatterns, 0, len(roster))}
	for _, c := range roster {
		m.patterns = append(m.patterns, coinPatterns{
			coinID: c.ID,
			name:   wholeWord(c.Name),
			symbol: wholeWord(c.Symbol),
		})
	}
	return m
}

// wholeWord returns nil for an empty literal so it never matches
func wholeWord(literal string) *regexp.Regexp {
	literal = strings.ToLower(strings.TrimSpace(literal))
	if literal == "" {
		return nil
	}
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(literal) + `\b`)
}

func count(re *regexp.Regexp, text string) int {
	if re == nil {
		return 0
	}
	return len(re.FindAllStringIndex(text, -1))
}

// Find returns one Mention per coin with at least one hit, in roster order.
// Name and symbol hits are summed. Overlapping coins are counted independently.
func (m *Matcher) Find(text string) []Mention {
	if text == "" || len(m.patterns) == 0 {
		return nil
	}

	lower := strings.ToLower(text)

	var out []Mention
	for _, p := range m.patterns {
		n := count(p.name, lower) + count(p.symbol, lower)
		if n > 0 {
			out = append(out, Mention{CoinID: p.coinID, Mentions: n})
		}
	}
	return out
}

// FindMentions is a one-shot helper compiling the roster for a single text
func FindMentions(text string, roster []RosterCoin) []Mention {
	return NewMatcher(roster).Find(text)
}
