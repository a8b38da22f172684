// Package facet turns raw per-field value counts into ordered facet lists.
package facet

import "sort"

// Count is one facet value and how many hits carry it.
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Aggregate returns one list per requested field, ordered by count desc then
// value asc. A field missing from raw gets an empty, non-nil list.
func Aggregate(raw map[string]map[string]int, fields []string) map[string][]Count {
	out := make(map[string][]Count, len(fields))
	for _, f := range fields {
		values := raw[f]
		list := make([]Count, 0, len(values))
		for v, n := range values {
			if v == "" || n <= 0 {
				continue
			}
			list = append(list, Count{Value: v, Count: n})
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Count != list[j].Count {
				return list[i].Count > list[j].Count
			}
			return list[i].Value < list[j].Value
		})
		out[f] = list
	}
	return out
}

// Empty returns an empty list for every field, used when search degrades.
func Empty(fields []string) map[string][]Count {
	return Aggregate(nil, fields)
}
