package pollen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pollenpaw/pollenpaw/internal/pollen"
)

func TestCombineRecommendations(t *testing.T) {
	got := pollen.CombineRecommendations(pollen.Extracted{
		TreeRecommendations:  []string{"A", "B"},
		GrassRecommendations: []string{"B", "C"},
		WeedRecommendations:  []string{"A"},
	})

	assert.Equal(t, []string{"A", "B", "C"}, got)
}

func TestCombineRecommendations_Empty(t *testing.T) {
	got := pollen.CombineRecommendations(pollen.Extracted{})

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCombineRecommendations_Idempotent(t *testing.T) {
	first := pollen.CombineRecommendations(pollen.Extracted{
		TreeRecommendations:  []string{"Close windows", "Stay indoors"},
		GrassRecommendations: []string{"Wear sunglasses"},
	})
	assert.Len(t, first, 3)

	again := pollen.CombineRecommendations(pollen.Extracted{
		TreeRecommendations:  first,
		GrassRecommendations: first,
	})
	assert.Equal(t, first, again)
}
