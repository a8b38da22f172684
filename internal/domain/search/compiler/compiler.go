// Package compiler turns validated search parameters into a predicate
// expression and a sort order for the index service.
package compiler

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/gymdex/internal/domain/document"
	"github.com/kailas-cloud/gymdex/internal/domain/geo"
	"github.com/kailas-cloud/gymdex/internal/domain/listing"
	"github.com/kailas-cloud/gymdex/internal/domain/search/filter"
	"github.com/kailas-cloud/gymdex/internal/domain/search/mode"
)

// FieldTextMatch is the pseudo-field for text relevance in sort expressions.
const FieldTextMatch = "_text_match"

// Geo is a center and radius in miles.
type Geo struct {
	Lat         float64
	Lng         float64
	RadiusMiles float64
}

// Params are the structured search parameters after query parsing.
type Params struct {
	GymTypes    []string
	PriceRanges []string
	Attributes  []string
	// Cities is the union of explicit city filters and parser-extracted locations.
	Cities    []string
	Countries []string
	Is24Hour  *bool
	Tier      listing.Tier
	Geo       *Geo
	Sort      mode.Mode
}

// SortKey is one ordering key.
type SortKey struct {
	Field string
	Desc  bool
}

// Sort is an ordered list of keys plus the effective mode.
type Sort struct {
	Mode mode.Mode
	Keys []SortKey
}

// String renders "field:dir,field:dir".
func (s Sort) String() string {
	parts := make([]string, 0, len(s.Keys))
	for _, k := range s.Keys {
		dir := "asc"
		if k.Desc {
			dir = "desc"
		}
		parts = append(parts, k.Field+":"+dir)
	}
	return strings.Join(parts, ",")
}

// Compiled is the compiler output.
type Compiled struct {
	Filter filter.Expression
	Sort   Sort
	// Center is the geo center when a radius predicate is present.
	Center *filter.GeoRadius
}

// Compile builds the filter and sort. The eligibility predicate on status is
// always first and cannot be influenced by params.
func Compile(p Params) (Compiled, error) {
	statuses := listing.EligibleStatuses()
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	status, err := filter.NewOneOf(document.FieldStatus, values)
	if err != nil {
		return Compiled{}, err
	}
	expr := filter.And(status)

	lists := []struct {
		field  string
		values []string
	}{
		{document.FieldGymType, p.GymTypes},
		{document.FieldPriceRange, p.PriceRanges},
		{document.FieldAttributes, p.Attributes},
		{document.FieldCity, p.Cities},
		{document.FieldCountry, p.Countries},
	}
	for _, l := range lists {
		if !hasValue(l.values) {
			continue
		}
		pred, err := filter.NewOneOf(l.field, l.values)
		if err != nil {
			return Compiled{}, fmt.Errorf("%s filter: %w", l.field, err)
		}
		expr = expr.With(pred)
	}

	if p.Is24Hour != nil {
		pred, err := filter.NewBool(document.FieldIs24Hour, *p.Is24Hour)
		if err != nil {
			return Compiled{}, err
		}
		expr = expr.With(pred)
	}

	if p.Tier != "" {
		pred, err := filter.NewEquals(document.FieldTier, string(p.Tier))
		if err != nil {
			return Compiled{}, err
		}
		expr = expr.With(pred)
	}

	var center *filter.GeoRadius
	if p.Geo != nil {
		pred, err := filter.NewGeoRadius(document.FieldLocation, p.Geo.Lat, p.Geo.Lng, geo.MilesToKm(p.Geo.RadiusMiles))
		if err != nil {
			return Compiled{}, fmt.Errorf("geo filter: %w", err)
		}
		expr = expr.With(pred)
		center = pred.Geo()
	}

	return Compiled{Filter: expr, Sort: compileSort(p.Sort, center != nil), Center: center}, nil
}

func compileSort(m mode.Mode, hasCenter bool) Sort {
	switch m {
	case mode.Distance:
		if hasCenter {
			return Sort{Mode: mode.Distance, Keys: []SortKey{{Field: document.FieldLocation}}}
		}
	case mode.Newest:
		return Sort{Mode: mode.Newest, Keys: []SortKey{{Field: document.FieldCreatedAt, Desc: true}}}
	case mode.Name:
		return Sort{Mode: mode.Name, Keys: []SortKey{{Field: document.FieldName}}}
	}
	return Sort{
		Mode: mode.Relevance,
		Keys: []SortKey{
			{Field: FieldTextMatch, Desc: true},
			{Field: document.FieldBoostScore, Desc: true},
		},
	}
}

func hasValue(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// MergeCities returns explicit cities followed by extracted locations, without duplicates.
func MergeCities(explicit, extracted []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, list := range [][]string{explicit, extracted} {
		for _, c := range list {
			c = strings.TrimSpace(c)
			key := strings.ToLower(c)
			if c == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, c)
		}
	}
	return out
}
