package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/gymdex/internal/db"
	"github.com/kailas-cloud/gymdex/internal/domain/search/filter"
)

const defaultFacetLimit = 20

// Search runs FT.SEARCH and one FT.AGGREGATE per requested facet in a single
// DoMulti round-trip. Facets are computed over the same query as the hits.
func (s *Store) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if q == nil || q.IndexName == "" {
		return nil, errors.New("index name is required")
	}
	if q.Offset < 0 || q.Limit < 0 {
		return nil, errors.New("offset and limit must be non-negative")
	}

	query, err := buildQuery(q.Text, q.Filters)
	if err != nil {
		return nil, err
	}
	args, err := buildSearchArgs(q, query)
	if err != nil {
		return nil, err
	}

	cmds := make([]rueidis.Completed, 0, 1+len(q.Facets))
	cmds = append(cmds, s.b().Arbitrary("FT.SEARCH").Args(args...).Build())
	for _, f := range q.Facets {
		if !db.IsValidIdentifier(f.Field) {
			return nil, fmt.Errorf("invalid facet field %q", f.Field)
		}
		cmds = append(cmds, s.b().Arbitrary("FT.AGGREGATE").Args(buildFacetArgs(q.IndexName, query, f)...).Build())
	}

	results := s.client.DoMulti(ctx, cmds...)

	raw, err := results[0].ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	res, err := parseSearchResult(raw, q.WithScores)
	if err != nil {
		return nil, err
	}

	if len(q.Facets) > 0 {
		res.Facets = make(map[string]map[string]int, len(q.Facets))
		for i, f := range q.Facets {
			rows, err := results[i+1].ToArray()
			if err != nil {
				return nil, &db.Error{Op: db.OpAggregate, Err: fmt.Errorf("facet %s: %w", f.Field, err)}
			}
			if counts := parseFacetRows(rows, f.Field); len(counts) > 0 {
				res.Facets[f.Field] = counts
			}
		}
	}

	return res, nil
}

// SearchCount returns document count via FT.SEARCH with LIMIT 0 0.
func (s *Store) SearchCount(ctx context.Context, index, query string) (int, error) {
	cmd := s.b().Arbitrary("FT.SEARCH").Args(index, query, "LIMIT", "0", "0").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index") {
			return 0, db.ErrIndexNotFound
		}
		return 0, &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

func buildSearchArgs(q *db.SearchQuery, query string) ([]string, error) {
	args := []string{q.IndexName, query}

	if q.WithScores {
		args = append(args, "WITHSCORES")
	}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}

	if q.SortBy != nil {
		if !db.IsValidIdentifier(q.SortBy.Field) {
			return nil, fmt.Errorf("invalid sort field %q", q.SortBy.Field)
		}
		dir := "ASC"
		if q.SortBy.Desc {
			dir = "DESC"
		}
		args = append(args, "SORTBY", q.SortBy.Field, dir)
	}

	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)
	return args, nil
}

func buildFacetArgs(index, query string, f db.FacetRequest) []string {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultFacetLimit
	}
	// LOAD makes non-sortable JSON attributes available to GROUPBY. Dialect 3
	// loads every value of a multi-value path as a JSON array; dialect 2 would
	// keep only the first one.
	return []string{
		index, query,
		"LOAD", "1", "@" + f.Field,
		"GROUPBY", "1", "@" + f.Field,
		"REDUCE", "COUNT", "0", "AS", "count",
		"SORTBY", "2", "@count", "DESC",
		"MAX", strconv.Itoa(limit),
		"DIALECT", "3",
	}
}

// --- Query building ---

// buildQuery joins the text part and the filter part; an empty query matches everything.
func buildQuery(text db.TextMatch, expr filter.Expression) (string, error) {
	var parts []string
	if tp := buildTextPart(text); tp != "" {
		parts = append(parts, tp)
	}
	fp, err := buildFilter(expr)
	if err != nil {
		return "", err
	}
	if fp != "" {
		parts = append(parts, fp)
	}
	if len(parts) == 0 {
		return "*", nil
	}
	return strings.Join(parts, " "), nil
}

func buildTextPart(t db.TextMatch) string {
	if t.IsWildcard() {
		return ""
	}
	words := strings.Fields(t.Terms)
	escaped := make([]string, 0, len(words))
	for _, w := range words {
		e := escapeQuery(w)
		if e == "" {
			continue
		}
		if t.Prefix {
			e += "*"
		}
		escaped = append(escaped, e)
	}
	if len(escaped) == 0 {
		return ""
	}
	joined := strings.Join(escaped, " ")
	if len(t.Fields) == 0 {
		return "(" + joined + ")"
	}
	return fmt.Sprintf("@%s:(%s)", strings.Join(t.Fields, "|"), joined)
}

// buildFilter renders a predicate conjunction as FT.SEARCH clauses separated by spaces (AND).
func buildFilter(expr filter.Expression) (string, error) {
	if expr.IsEmpty() {
		return "", nil
	}

	parts := make([]string, 0, len(expr.Predicates()))
	for _, p := range expr.Predicates() {
		if !db.IsValidIdentifier(p.Field()) {
			return "", fmt.Errorf("invalid filter field %q", p.Field())
		}
		switch p.Op() {
		case filter.OpOneOf, filter.OpEquals:
			parts = append(parts, buildTagFilter(p.Field(), p.Values()))
		case filter.OpGeoRadius:
			g := p.Geo()
			parts = append(parts, fmt.Sprintf("@%s:[%s %s %s km]",
				p.Field(),
				strconv.FormatFloat(g.Lng, 'f', -1, 64),
				strconv.FormatFloat(g.Lat, 'f', -1, 64),
				strconv.FormatFloat(g.RadiusKm, 'f', -1, 64)))
		default:
			return "", fmt.Errorf("unsupported predicate on %q", p.Field())
		}
	}

	return strings.Join(parts, " "), nil
}

func buildTagFilter(key string, values []string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = tagEscaper.Replace(v)
	}
	return fmt.Sprintf("@%s:{%s}", key, strings.Join(escaped, " | "))
}

// --- Result parsing ---

// parseSearchResult reads [total, key, (score,) fields, ...]; stride 3 when scores were requested.
func parseSearchResult(raw []rueidis.RedisMessage, withScores bool) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	stride := 2
	if withScores {
		stride = 3
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/stride)
	for i := 1; i+stride-1 < len(raw); i += stride {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{Key: key}
		fieldsIdx := i + 1
		if withScores {
			scoreStr, err := raw[i+1].ToString()
			if err != nil {
				continue
			}
			score, err := strconv.ParseFloat(scoreStr, 64)
			if err != nil {
				continue
			}
			entry.Score = score
			fieldsIdx = i + 2
		}

		fields, err := raw[fieldsIdx].ToArray()
		if err != nil {
			continue
		}
		entry.Fields = parseFieldPairs(fields)
		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// parseFacetRows reads FT.AGGREGATE rows [n, [field, v, count, c], ...].
// Under dialect 3 v is a JSON array (["Miami"], ["Sauna","Pool"]); each
// element gets the row count. A plain string is counted as is.
func parseFacetRows(rows []rueidis.RedisMessage, field string) map[string]int {
	counts := make(map[string]int)
	for i := 1; i < len(rows); i++ {
		pairs, err := rows[i].ToArray()
		if err != nil {
			continue
		}
		m := parseFieldPairs(pairs)
		value, ok := m[field]
		if !ok || value == "" {
			continue
		}
		n, err := strconv.Atoi(m["count"])
		if err != nil || n <= 0 {
			continue
		}
		if many, ok := facetValues(value); ok {
			for _, v := range many {
				counts[v] += n
			}
			continue
		}
		counts[value] += n
	}
	return counts
}

// facetValues decodes a JSON array of scalars into their string forms.
func facetValues(raw string) ([]string, bool) {
	if !strings.HasPrefix(raw, "[") {
		return nil, false
	}
	var many []any
	if err := json.Unmarshal([]byte(raw), &many); err != nil {
		return nil, false
	}
	out := make([]string, 0, len(many))
	for _, v := range many {
		switch t := v.(type) {
		case string:
			if t != "" {
				out = append(out, t)
			}
		case float64:
			out = append(out, strconv.FormatFloat(t, 'f', -1, 64))
		case bool:
			out = append(out, strconv.FormatBool(t))
		}
	}
	return out, true
}

// --- Escaping ---

// The backslash goes first: an unescaped `\}` in a value would otherwise
// render as an escaped backslash followed by a raw "}".
var tagEscaper = strings.NewReplacer(
	"\\", "\\\\",
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"|", "\\|",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"/", "\\/",
	" ", "\\ ",
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
	`:`, `\:`,
	`,`, `\,`,
	`.`, `\.`,
	`/`, `\/`,
)
