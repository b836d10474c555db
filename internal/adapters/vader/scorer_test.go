package vader

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	s := NewScorer()

	pos, err := s.Score("Bitcoin surges to a great, amazing record high")
	require.NoError(t, err)
	assert.Greater(t, pos, 0.0)
	assert.LessOrEqual(t, pos, 1.0)

	neg, err := s.Score("Terrible crash wipes out investors, a horrible disaster")
	require.NoError(t, err)
	assert.Less(t, neg, 0.0)
	assert.GreaterOrEqual(t, neg, -1.0)
}

func TestScore_Blank(t *testing.T) {
	s := NewScorer()

	for _, text := range []string{"", " ", "\n\t"} {
		score, err := s.Score(text)
		require.NoError(t, err)
		assert.Zero(t, score)
	}
}

func TestScore_DeterministicUnderConcurrency(t *testing.T) {
	s := NewScorer()
	text := "Ethereum developers are happy with the smooth upgrade"

	want, err := s.Score(text)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.Score(text)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}
