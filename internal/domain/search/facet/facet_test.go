package facet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	raw := map[string]map[string]int{
		"gym_type": {"crossfit": 3, "boxing": 5, "yoga": 3},
		"city":     {"Miami": 2, "": 4, "Tampa": 0},
	}
	got := Aggregate(raw, []string{"gym_type", "city", "country"})

	require.Len(t, got, 3)
	assert.Equal(t, []Count{
		{Value: "boxing", Count: 5},
		{Value: "crossfit", Count: 3},
		{Value: "yoga", Count: 3},
	}, got["gym_type"])
	assert.Equal(t, []Count{{Value: "Miami", Count: 2}}, got["city"])

	require.NotNil(t, got["country"], "absent field must be an empty list")
	assert.Empty(t, got["country"])
}

func TestEmpty(t *testing.T) {
	got := Empty([]string{"gym_type", "city"})
	for _, f := range []string{"gym_type", "city"} {
		assert.NotNil(t, got[f])
		assert.Empty(t, got[f])
	}
}
