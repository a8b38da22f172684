package chi

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/gymdex/internal/domain/search/mode"
	"github.com/kailas-cloud/gymdex/internal/domain/search/request"
)

// searchQueryParams mirrors the GET /search query string. Lists are comma-joined.
type searchQueryParams struct {
	Q          *string
	Page       *int
	PerPage    *int
	Location   *string
	GymTypes   *[]string
	Price      *[]string
	Attributes *[]string
	Cities     *[]string
	Countries  *[]string
	Is24Hour   *bool
	Tier       *string
	Lat        *float64
	Lng        *float64
	Radius     *float64
	Sort       *string
}

// bindSearchParams decodes the query string into request.Params. per_page
// falls back to def and is capped at maxSize.
func bindSearchParams(q url.Values, def, maxSize int) (request.Params, error) {
	var p searchQueryParams

	bindings := []struct {
		name    string
		explode bool
		dest    any
	}{
		{"q", true, &p.Q},
		{"page", true, &p.Page},
		{"per_page", true, &p.PerPage},
		{"location", true, &p.Location},
		{"gym_types", false, &p.GymTypes},
		{"price", false, &p.Price},
		{"attributes", false, &p.Attributes},
		{"cities", false, &p.Cities},
		{"countries", false, &p.Countries},
		{"is_24_hour", true, &p.Is24Hour},
		{"tier", true, &p.Tier},
		{"lat", true, &p.Lat},
		{"lng", true, &p.Lng},
		{"radius", true, &p.Radius},
		{"sort", true, &p.Sort},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", b.explode, false, b.name, q, b.dest); err != nil {
			return request.Params{}, fmt.Errorf("invalid format for parameter %s: %w", b.name, err)
		}
	}

	params := request.Params{
		Query:       deref(p.Q),
		Page:        deref(p.Page),
		PerPage:     deref(p.PerPage),
		GymTypes:    deref(p.GymTypes),
		PriceRanges: deref(p.Price),
		Attributes:  deref(p.Attributes),
		Cities:      deref(p.Cities),
		Countries:   deref(p.Countries),
		Is24Hour:    p.Is24Hour,
		Tier:        deref(p.Tier),
		Sort:        mode.Mode(strings.ToLower(deref(p.Sort))),
	}
	if params.PerPage <= 0 {
		params.PerPage = def
	}
	if params.PerPage > maxSize {
		params.PerPage = maxSize
	}
	if city := locationCity(deref(p.Location)); city != "" {
		params.Cities = append(params.Cities, city)
	}

	switch {
	case p.Lat != nil && p.Lng != nil:
		params.Geo = &request.GeoQuery{Latitude: *p.Lat, Longitude: *p.Lng, RadiusMiles: deref(p.Radius)}
	case p.Lat != nil || p.Lng != nil:
		return request.Params{}, errors.New("lat and lng must be given together")
	case p.Radius != nil:
		return request.Params{}, errors.New("radius requires lat and lng")
	}
	return params, nil
}

// locationCity takes the city part of a "City, ST" location string.
func locationCity(loc string) string {
	city, _, _ := strings.Cut(loc, ",")
	return strings.TrimSpace(city)
}

func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
