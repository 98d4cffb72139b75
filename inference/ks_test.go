package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKSUniform_UniformGrid(t *testing.T) {
	// Midpoints of 100 equal bins: as uniform as a sample gets.
	grid := make([]float64, 100)
	for i := range grid {
		grid[i] = (float64(i) + 0.5) / 100
	}
	assert.Greater(t, ksUniformPValue(grid), 0.95)
}

func TestKSUniform_Degenerate(t *testing.T) {
	clumped := make([]float64, 100)
	for i := range clumped {
		clumped[i] = 0.5
	}
	assert.Less(t, ksUniformPValue(clumped), 1e-6)
}

func TestKSUniform_Empty(t *testing.T) {
	assert.Equal(t, 1.0, ksUniformPValue(nil))
}
