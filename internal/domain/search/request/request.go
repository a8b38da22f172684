package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/gymdex/internal/domain/geo"
	"github.com/kailas-cloud/gymdex/internal/domain/listing"
	"github.com/kailas-cloud/gymdex/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength     = 256
	DefaultPerPage     = 20
	MaxPerPage         = 100
	DefaultRadiusMiles = 25.0
	MaxRadiusMiles     = 500.0
)

// GeoQuery is a radius search around a point.
type GeoQuery struct {
	Latitude    float64
	Longitude   float64
	RadiusMiles float64
}

// Params are raw caller inputs, before validation.
type Params struct {
	Query       string
	Page        int
	PerPage     int
	GymTypes    []string
	PriceRanges []string
	Attributes  []string
	Cities      []string
	Countries   []string
	Is24Hour    *bool
	Tier        string
	Geo         *GeoQuery
	Sort        mode.Mode
}

// Request is a validated search query.
type Request struct {
	query       string
	page        int
	perPage     int
	gymTypes    []string
	priceRanges []string
	attributes  []string
	cities      []string
	countries   []string
	is24Hour    *bool
	tier        listing.Tier
	geo         *GeoQuery
	sort        mode.Mode
}

// New validates and normalizes search parameters.
// Defaults: page=1, per_page=20, sort=relevance, radius=25mi when a center is given.
func New(p Params) (Request, error) {
	q := strings.TrimSpace(p.Query)
	if len(q) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}

	page := p.Page
	if page < 1 {
		page = 1
	}
	perPage := p.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	sort := p.Sort
	if sort == "" {
		sort = mode.Relevance
	}
	if !sort.IsValid() {
		return Request{}, fmt.Errorf("invalid sort: %q", sort)
	}

	tier := listing.Tier(strings.ToLower(strings.TrimSpace(p.Tier)))
	if tier != "" && !tier.IsValid() {
		return Request{}, fmt.Errorf("invalid tier: %q", p.Tier)
	}

	var g *GeoQuery
	if p.Geo != nil {
		if !geo.ValidateCoordinates(p.Geo.Latitude, p.Geo.Longitude) {
			return Request{}, fmt.Errorf("coordinates out of range")
		}
		radius := p.Geo.RadiusMiles
		if radius < 0 {
			return Request{}, fmt.Errorf("radius must be positive")
		}
		if radius == 0 {
			radius = DefaultRadiusMiles
		}
		if radius > MaxRadiusMiles {
			return Request{}, fmt.Errorf("radius too large (max %g miles)", MaxRadiusMiles)
		}
		g = &GeoQuery{Latitude: p.Geo.Latitude, Longitude: p.Geo.Longitude, RadiusMiles: radius}
	}

	return Request{
		query:       q,
		page:        page,
		perPage:     perPage,
		gymTypes:    clean(p.GymTypes),
		priceRanges: clean(p.PriceRanges),
		attributes:  clean(p.Attributes),
		cities:      clean(p.Cities),
		countries:   clean(p.Countries),
		is24Hour:    p.Is24Hour,
		tier:        tier,
		geo:         g,
		sort:        sort,
	}, nil
}

// clean trims values and drops blanks.
func clean(in []string) []string {
	var out []string
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Query returns the raw free text (may be empty).
func (r *Request) Query() string { return r.query }

// Page returns the 1-indexed page.
func (r *Request) Page() int { return r.page }

// PerPage returns the page size.
func (r *Request) PerPage() int { return r.perPage }

// Offset returns the zero-based index of the first hit on the page.
func (r *Request) Offset() int { return (r.page - 1) * r.perPage }

// GymTypes returns the gym type filter.
func (r *Request) GymTypes() []string { return r.gymTypes }

// PriceRanges returns the price range filter.
func (r *Request) PriceRanges() []string { return r.priceRanges }

// Attributes returns the attribute name filter.
func (r *Request) Attributes() []string { return r.attributes }

// Cities returns the explicit city filter.
func (r *Request) Cities() []string { return r.cities }

// Countries returns the country filter.
func (r *Request) Countries() []string { return r.countries }

// Is24Hour returns the 24-hour filter; nil when unset.
func (r *Request) Is24Hour() *bool { return r.is24Hour }

// Tier returns the subscription tier filter; empty when unset.
func (r *Request) Tier() listing.Tier { return r.tier }

// Geo returns the radius filter (nil when absent).
func (r *Request) Geo() *GeoQuery { return r.geo }

// Sort returns the requested sort mode.
func (r *Request) Sort() mode.Mode { return r.sort }
