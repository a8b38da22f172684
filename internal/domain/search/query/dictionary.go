package query

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Match is one alias found in a query and the location it stands for.
type Match struct {
	Alias     string
	Canonical string
}

// LocationResolver finds location aliases in lower-cased text.
// Matches are returned longest alias first; an alias that overlaps an
// earlier, longer match is not reported.
type LocationResolver interface {
	Resolve(text string) []Match
}

// Dictionary is a versioned alias table. It is immutable once built.
type Dictionary struct {
	version string
	entries []Match // sorted by alias length desc, then alias asc
}

// NewDictionary builds a dictionary from alias -> canonical pairs.
// Aliases are lower-cased and trimmed; blank entries are dropped.
func NewDictionary(version string, aliases map[string]string) *Dictionary {
	d := &Dictionary{version: version}
	d.entries = normalize(aliases)
	return d
}

// DefaultDictionary returns the built-in alias table.
func DefaultDictionary() *Dictionary {
	return NewDictionary(builtinVersion, builtinAliases)
}

// Extend returns a new dictionary with extra aliases layered over d.
// Extra entries win on conflict.
func (d *Dictionary) Extend(version string, extra map[string]string) *Dictionary {
	merged := make(map[string]string, len(d.entries)+len(extra))
	for _, e := range d.entries {
		merged[e.Alias] = e.Canonical
	}
	for k, v := range extra {
		merged[k] = v
	}
	return NewDictionary(version, merged)
}

// Version identifies the table contents.
func (d *Dictionary) Version() string { return d.version }

// Len returns the number of aliases.
func (d *Dictionary) Len() int { return len(d.entries) }

// Resolve scans text for aliases on word boundaries, longest first.
func (d *Dictionary) Resolve(text string) []Match {
	working := text
	var out []Match
	for _, e := range d.entries {
		next, found := eraseWord(working, e.Alias)
		if !found {
			continue
		}
		working = next
		out = append(out, e)
	}
	return out
}

func normalize(aliases map[string]string) []Match {
	entries := make([]Match, 0, len(aliases))
	for alias, canonical := range aliases {
		a := strings.Join(strings.Fields(strings.ToLower(alias)), " ")
		c := strings.TrimSpace(canonical)
		if a == "" || c == "" {
			continue
		}
		entries = append(entries, Match{Alias: a, Canonical: c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].Alias) != len(entries[j].Alias) {
			return len(entries[i].Alias) > len(entries[j].Alias)
		}
		return entries[i].Alias < entries[j].Alias
	})
	// duplicates can appear after normalization ("NYC" and "nyc"); keep the first
	dedup := entries[:0]
	for i, e := range entries {
		if i > 0 && e.Alias == entries[i-1].Alias {
			continue
		}
		dedup = append(dedup, e)
	}
	return dedup
}

// aliasFile is the on-disk layout of an alias table.
type aliasFile struct {
	Version string            `yaml:"version"`
	Replace bool              `yaml:"replace"`
	Aliases map[string]string `yaml:"aliases"`
}

// LoadDictionary reads a YAML alias file and layers it over base.
// With "replace: true" the file's aliases are used alone.
func LoadDictionary(path string, base *Dictionary) (*Dictionary, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path from config
	if err != nil {
		return nil, fmt.Errorf("read alias file: %w", err)
	}
	var f aliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse alias file %s: %w", path, err)
	}
	if f.Version == "" {
		f.Version = path
	}
	if f.Replace || base == nil {
		return NewDictionary(f.Version, f.Aliases), nil
	}
	return base.Extend(f.Version, f.Aliases), nil
}

const builtinVersion = "builtin-1"

var builtinAliases = map[string]string{
	"nyc":             "New York",
	"new york":        "New York",
	"new york city":   "New York",
	"manhattan":       "New York",
	"brooklyn":        "Brooklyn",
	"la":              "Los Angeles",
	"los angeles":     "Los Angeles",
	"sf":              "San Francisco",
	"san francisco":   "San Francisco",
	"san diego":       "San Diego",
	"san jose":        "San Jose",
	"chicago":         "Chicago",
	"houston":         "Houston",
	"dallas":          "Dallas",
	"austin":          "Austin",
	"san antonio":     "San Antonio",
	"phoenix":         "Phoenix",
	"philadelphia":    "Philadelphia",
	"philly":          "Philadelphia",
	"seattle":         "Seattle",
	"portland":        "Portland",
	"denver":          "Denver",
	"boston":          "Boston",
	"atlanta":         "Atlanta",
	"nashville":       "Nashville",
	"las vegas":       "Las Vegas",
	"vegas":           "Las Vegas",
	"miami":           "Miami",
	"miami beach":     "Miami Beach",
	"fort lauderdale": "Fort Lauderdale",
	"ft lauderdale":   "Fort Lauderdale",
	"orlando":         "Orlando",
	"tampa":           "Tampa",
	"jacksonville":    "Jacksonville",
	"washington dc":   "Washington",
	"dc":              "Washington",
	"minneapolis":     "Minneapolis",
	"detroit":         "Detroit",
	"salt lake city":  "Salt Lake City",
	"slc":             "Salt Lake City",
	"charlotte":       "Charlotte",
	"raleigh":         "Raleigh",
	"new orleans":     "New Orleans",
	"nola":            "New Orleans",
	"st louis":        "St. Louis",
	"saint louis":     "St. Louis",
	"kansas city":     "Kansas City",
	"honolulu":        "Honolulu",
	"toronto":         "Toronto",
	"vancouver":       "Vancouver",
	"london":          "London",
	"boca raton":      "Boca Raton",
	"west palm beach": "West Palm Beach",
	"palm beach":      "Palm Beach",
	"coral gables":    "Coral Gables",
	"san juan":        "San Juan",
	"long beach":      "Long Beach",
	"santa monica":    "Santa Monica",
	"oakland":         "Oakland",
	"sacramento":      "Sacramento",
	"pittsburgh":      "Pittsburgh",
	"baltimore":       "Baltimore",
	"cleveland":       "Cleveland",
	"columbus":        "Columbus",
	"indianapolis":    "Indianapolis",
	"milwaukee":       "Milwaukee",
	"albuquerque":     "Albuquerque",
	"tucson":          "Tucson",
	"scottsdale":      "Scottsdale",
	"boulder":         "Boulder",
	"hoboken":         "Hoboken",
	"jersey city":     "Jersey City",
	"queens":          "Queens",
	"the bronx":       "Bronx",
	"bronx":           "Bronx",
	"staten island":   "Staten Island",
	"fort worth":      "Fort Worth",
	"el paso":         "El Paso",
	"oklahoma city":   "Oklahoma City",
	"okc":             "Oklahoma City",
	"louisville":      "Louisville",
	"memphis":         "Memphis",
	"richmond":        "Richmond",
	"virginia beach":  "Virginia Beach",
	"buffalo":         "Buffalo",
	"anchorage":       "Anchorage",
}
