package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/gymdex/internal/domain/document"
	"github.com/kailas-cloud/gymdex/internal/domain/listing"
	"github.com/kailas-cloud/gymdex/internal/domain/search/filter"
	"github.com/kailas-cloud/gymdex/internal/domain/search/mode"
)

func boolPtr(b bool) *bool { return &b }

func TestCompile_StatusAlwaysPresentOnce(t *testing.T) {
	cases := []Params{
		{},
		{GymTypes: []string{"crossfit"}, Cities: []string{"Miami"}},
		{Tier: listing.TierPremium, Is24Hour: boolPtr(true)},
		{Geo: &Geo{Lat: 1, Lng: 2, RadiusMiles: 5}, Sort: mode.Distance},
	}
	for _, p := range cases {
		c, err := Compile(p)
		require.NoError(t, err)
		assert.Equal(t, 1, c.Filter.Count(document.FieldStatus))

		first := c.Filter.Predicates()[0]
		assert.Equal(t, document.FieldStatus, first.Field())
		assert.Equal(t, filter.OpOneOf, first.Op())
		assert.Equal(t, []string{"verified", "claimed"}, first.Values())
	}
}

func TestCompile_ListsOmittedWhenEmpty(t *testing.T) {
	c, err := Compile(Params{GymTypes: []string{}, Attributes: []string{" "}})
	require.NoError(t, err)
	assert.Len(t, c.Filter.Predicates(), 1)
}

func TestCompile_AllFilters(t *testing.T) {
	c, err := Compile(Params{
		GymTypes:    []string{"crossfit", "boxing"},
		PriceRanges: []string{"$$"},
		Attributes:  []string{"Sauna"},
		Cities:      []string{"Miami"},
		Countries:   []string{"US"},
		Is24Hour:    boolPtr(true),
		Tier:        listing.TierPremium,
	})
	require.NoError(t, err)

	want := "status:=[verified,claimed] && gym_type:=[crossfit,boxing] && price_range:=[$$] && " +
		"attributes:=[Sauna] && city:=[Miami] && country:=[US] && is_24_hour:=true && subscription_tier:=premium"
	assert.Equal(t, want, c.Filter.String())
	assert.Nil(t, c.Center)
}

func TestCompile_GeoRadiusInKilometers(t *testing.T) {
	c, err := Compile(Params{Geo: &Geo{Lat: 25.76, Lng: -80.19, RadiusMiles: 10}})
	require.NoError(t, err)

	require.NotNil(t, c.Center)
	assert.InDelta(t, 16.0934, c.Center.RadiusKm, 1e-6)
	assert.Equal(t, 1, c.Filter.Count(document.FieldLocation))
}

func TestCompile_InvalidGeo(t *testing.T) {
	_, err := Compile(Params{Geo: &Geo{Lat: 120, Lng: 0, RadiusMiles: 10}})
	assert.Error(t, err)
}

func TestCompile_Sort(t *testing.T) {
	center := &Geo{Lat: 25.76, Lng: -80.19, RadiusMiles: 10}
	tests := []struct {
		name     string
		p        Params
		wantMode mode.Mode
		want     string
	}{
		{"default", Params{}, mode.Relevance, "_text_match:desc,boost_score:desc"},
		{"relevance", Params{Sort: mode.Relevance}, mode.Relevance, "_text_match:desc,boost_score:desc"},
		{"distance with center", Params{Sort: mode.Distance, Geo: center}, mode.Distance, "location:asc"},
		{"distance without center", Params{Sort: mode.Distance}, mode.Relevance, "_text_match:desc,boost_score:desc"},
		{"newest", Params{Sort: mode.Newest}, mode.Newest, "created_at:desc"},
		{"name", Params{Sort: mode.Name}, mode.Name, "name:asc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Compile(tt.p)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, c.Sort.Mode)
			assert.Equal(t, tt.want, c.Sort.String())
		})
	}
}

func TestMergeCities(t *testing.T) {
	got := MergeCities([]string{"Miami", " "}, []string{"miami", "Tampa"})
	assert.Equal(t, []string{"Miami", "Tampa"}, got)
	assert.Nil(t, MergeCities(nil, nil))
}
