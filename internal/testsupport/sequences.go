package testsupport

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Global counter for unique identifiers; seeded from the clock so reruns do not collide
var testSequence = uint64(time.Now().UnixNano() % 1000000)

// NextSequence returns next unique sequence number
func NextSequence() uint64 {
	return atomic.AddUint64(&testSequence, 1)
}

// UniqueName generates a unique name with given prefix
// Example: UniqueName("coin") -> "coin_123456"
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, NextSequence())
}

// UniqueSymbol generates a unique upper-case ticker
// Example: UniqueSymbol("T") -> "T123456"
func UniqueSymbol(base string) string {
	return fmt.Sprintf("%s%d", base, NextSequence())
}

// UniqueLink generates an article link that no other test uses
func UniqueLink() string {
	return "https://news.test/" + uuid.New().String()
}
