package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxValuesPerPredicate caps the values of a single "is one of" predicate.
const MaxValuesPerPredicate = 64

// Op is the kind of a predicate.
type Op int

const (
	// OpOneOf matches when the field holds any of the values.
	OpOneOf Op = iota
	// OpEquals matches one exact value.
	OpEquals
	// OpGeoRadius matches points within a radius of a center.
	OpGeoRadius
)

// Expression is a conjunction of per-field predicates.
// Values are kept raw; escaping is the renderer's job.
type Expression struct {
	preds []Predicate
}

// And builds an Expression from the given predicates.
func And(preds ...Predicate) Expression {
	out := make([]Predicate, 0, len(preds))
	out = append(out, preds...)
	return Expression{preds: out}
}

// With returns a copy of e extended with p.
func (e Expression) With(p Predicate) Expression {
	out := make([]Predicate, 0, len(e.preds)+1)
	out = append(out, e.preds...)
	out = append(out, p)
	return Expression{preds: out}
}

// Predicates returns the predicates in insertion order.
func (e Expression) Predicates() []Predicate { return e.preds }

// IsEmpty reports whether the expression has no predicates.
func (e Expression) IsEmpty() bool { return len(e.preds) == 0 }

// Count returns how many predicates target field.
func (e Expression) Count(field string) int {
	n := 0
	for _, p := range e.preds {
		if p.field == field {
			n++
		}
	}
	return n
}

// String renders the expression in a neutral "field:=[a,b] && ..." form for logs.
func (e Expression) String() string {
	parts := make([]string, 0, len(e.preds))
	for _, p := range e.preds {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, " && ")
}

// Predicate is a single typed clause on one field.
type Predicate struct {
	field  string
	op     Op
	values []string
	geo    *GeoRadius
}

// GeoRadius is a circle in kilometers.
type GeoRadius struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
}

// NewOneOf creates an "is one of" predicate. Blank and duplicate values are dropped.
func NewOneOf(field string, values []string) (Predicate, error) {
	if field == "" {
		return Predicate{}, fmt.Errorf("filter field is required")
	}
	clean := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		clean = append(clean, v)
	}
	if len(clean) == 0 {
		return Predicate{}, fmt.Errorf("at least one value is required for field %q", field)
	}
	if len(clean) > MaxValuesPerPredicate {
		return Predicate{}, fmt.Errorf("too many values for field %q (max %d)", field, MaxValuesPerPredicate)
	}
	return Predicate{field: field, op: OpOneOf, values: clean}, nil
}

// NewEquals creates an exact-match predicate.
func NewEquals(field, value string) (Predicate, error) {
	if field == "" {
		return Predicate{}, fmt.Errorf("filter field is required")
	}
	if value == "" {
		return Predicate{}, fmt.Errorf("match value is required for field %q", field)
	}
	return Predicate{field: field, op: OpEquals, values: []string{value}}, nil
}

// NewBool creates an exact-match predicate on a boolean field.
func NewBool(field string, v bool) (Predicate, error) {
	return NewEquals(field, strconv.FormatBool(v))
}

// NewGeoRadius creates a radius predicate around lat/lng.
func NewGeoRadius(field string, lat, lng, radiusKm float64) (Predicate, error) {
	if field == "" {
		return Predicate{}, fmt.Errorf("filter field is required")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Predicate{}, fmt.Errorf("invalid coordinates: lat=%f lng=%f", lat, lng)
	}
	if radiusKm <= 0 || math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) {
		return Predicate{}, fmt.Errorf("radius must be positive, got %f", radiusKm)
	}
	return Predicate{
		field: field,
		op:    OpGeoRadius,
		geo:   &GeoRadius{Lat: lat, Lng: lng, RadiusKm: radiusKm},
	}, nil
}

// Field returns the target field.
func (p Predicate) Field() string { return p.field }

// Op returns the predicate kind.
func (p Predicate) Op() Op { return p.op }

// Values returns the match values (OneOf/Equals).
func (p Predicate) Values() []string { return p.values }

// Geo returns the radius (GeoRadius only).
func (p Predicate) Geo() *GeoRadius { return p.geo }

// String renders the predicate for logs.
func (p Predicate) String() string {
	switch p.op {
	case OpOneOf:
		return fmt.Sprintf("%s:=[%s]", p.field, strings.Join(p.values, ","))
	case OpEquals:
		return fmt.Sprintf("%s:=%s", p.field, p.values[0])
	case OpGeoRadius:
		return fmt.Sprintf("%s:(%g, %g, %s km)", p.field, p.geo.Lat, p.geo.Lng,
			strconv.FormatFloat(p.geo.RadiusKm, 'f', -1, 64))
	default:
		return ""
	}
}
