package assignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextAfterRotatesThroughPool(t *testing.T) {
	pool := []string{"a", "b", "c"}

	assert.Equal(t, "b", nextAfter("a", pool))
	assert.Equal(t, "c", nextAfter("b", pool))
	assert.Equal(t, "a", nextAfter("c", pool))
}

func TestNextAfterUnknownCurrentRestartsAtFirst(t *testing.T) {
	pool := []string{"a", "b", "c"}

	// Cursor never written, or the cursor agent left the pool.
	assert.Equal(t, "a", nextAfter("", pool))
	assert.Equal(t, "a", nextAfter("gone", pool))
}

func TestNextAfterSingleCandidateAlwaysSelected(t *testing.T) {
	pool := []string{"solo"}

	assert.Equal(t, "solo", nextAfter("", pool))
	assert.Equal(t, "solo", nextAfter("solo", pool))
}

func TestNextAfterEmptyPool(t *testing.T) {
	assert.Empty(t, nextAfter("a", nil))
}

func TestNextAfterFullCycleVisitsEveryAgentOnce(t *testing.T) {
	pool := []string{"a", "b", "c", "d"}

	seen := map[string]int{}
	current := ""
	for range pool {
		current = nextAfter(current, pool)
		seen[current]++
	}
	for _, agent := range pool {
		assert.Equal(t, 1, seen[agent], "agent %s", agent)
	}
}
