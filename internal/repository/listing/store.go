// Package listing reads listings and their attribute associations from the
// relational Listing Store over database/sql.
package listing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	// SQL drivers selected by Config.Driver.
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/kailas-cloud/gymdex/internal/domain"
	"github.com/kailas-cloud/gymdex/internal/domain/listing"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const listingColumns = `id, slug, name, COALESCE(description, ''), gym_type, COALESCE(price_range, ''),
	address, city, COALESCE(state, ''), country, COALESCE(postal_code, ''), latitude, longitude,
	COALESCE(phone, ''), COALESCE(email, ''), COALESCE(website, ''), hours,
	status, subscription_tier, created_at, updated_at`

// Store is the SQL-backed Listing Store reader.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the Listing Store. SQLite connections are limited to one
// so that ":memory:" databases are shared by every query.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported listing store driver %q", driver)
	}
	if dsn == "" {
		return nil, errors.New("listing store dsn is required")
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		conn.SetMaxOpenConns(1)
	}

	s := &Store{db: conn, driver: driver}
	if err := s.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping listing store: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns one listing with its attributes regardless of status.
func (s *Store) Get(ctx context.Context, id string) (*listing.Listing, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+listingColumns+` FROM listings WHERE id = ?`), id)
	l, err := scanListing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("listing %s: %w", id, domain.ErrListingNotFound)
		}
		return nil, fmt.Errorf("get listing %s: %w", id, err)
	}

	attrs, err := s.attributes(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	l.Attributes = attrs[id]
	return l, nil
}

// ListEligible returns one page of verified/claimed listings ordered by id,
// with attributes fetched in one query per page.
func (s *Store) ListEligible(ctx context.Context, offset, limit int) (listing.Page, error) {
	if offset < 0 || limit <= 0 {
		return listing.Page{}, fmt.Errorf("invalid page offset=%d limit=%d", offset, limit)
	}

	statuses := listing.EligibleStatuses()
	args := make([]any, 0, len(statuses)+2)
	for _, st := range statuses {
		args = append(args, string(st))
	}
	in := placeholders(len(statuses))

	var total int
	if err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT COUNT(*) FROM listings WHERE status IN (`+in+`)`), args...,
	).Scan(&total); err != nil {
		return listing.Page{}, fmt.Errorf("count eligible listings: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT `+listingColumns+` FROM listings WHERE status IN (`+in+`) ORDER BY id LIMIT ? OFFSET ?`),
		append(args, limit, offset)...,
	)
	if err != nil {
		return listing.Page{}, fmt.Errorf("list eligible listings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		out []listing.Listing
		ids []string
	)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return listing.Page{}, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, *l)
		ids = append(ids, l.ID)
	}
	if err := rows.Err(); err != nil {
		return listing.Page{}, fmt.Errorf("iterate listings: %w", err)
	}

	attrs, err := s.attributes(ctx, ids)
	if err != nil {
		return listing.Page{}, err
	}
	for i := range out {
		out[i].Attributes = attrs[out[i].ID]
	}

	return listing.Page{Listings: out, Total: total}, nil
}

func (s *Store) attributes(ctx context.Context, ids []string) (map[string][]listing.Attribute, error) {
	out := make(map[string][]listing.Attribute, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT la.listing_id, a.id, a.name, a.category, la.value, la.quantity
		FROM listing_attributes la
		JOIN attributes a ON a.id = la.attribute_id
		WHERE la.listing_id IN (`+placeholders(len(ids))+`)
		ORDER BY la.listing_id, a.name`), args...)
	if err != nil {
		return nil, fmt.Errorf("list attributes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			listingID string
			a         listing.Attribute
			category  string
			value     sql.NullString
			quantity  sql.NullInt64
		)
		if err := rows.Scan(&listingID, &a.ID, &a.Name, &category, &value, &quantity); err != nil {
			return nil, fmt.Errorf("scan attribute: %w", err)
		}
		a.Category = listing.Category(category)
		if value.Valid {
			a.Value = &value.String
		}
		if quantity.Valid {
			q := int(quantity.Int64)
			a.Quantity = &q
		}
		out[listingID] = append(out[listingID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attributes: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(sc scanner) (*listing.Listing, error) {
	var (
		l                    listing.Listing
		hours                sql.NullString
		status, tier         string
		createdAt, updatedAt any
	)
	if err := sc.Scan(
		&l.ID, &l.Slug, &l.Name, &l.Description, &l.GymType, &l.PriceRange,
		&l.Address, &l.City, &l.State, &l.Country, &l.PostalCode, &l.Latitude, &l.Longitude,
		&l.Phone, &l.Email, &l.Website, &hours,
		&status, &tier, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if hours.Valid {
		if l.Hours, err = listing.ParseHours([]byte(hours.String)); err != nil {
			return nil, fmt.Errorf("listing %s: %w", l.ID, err)
		}
	}
	l.Status = listing.Status(status)
	l.Tier = listing.Tier(tier)
	if l.CreatedAt, err = toTime(createdAt); err != nil {
		return nil, fmt.Errorf("listing %s created_at: %w", l.ID, err)
	}
	if l.UpdatedAt, err = toTime(updatedAt); err != nil {
		return nil, fmt.Errorf("listing %s updated_at: %w", l.ID, err)
	}
	return &l, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02",
}

// toTime accepts the timestamp shapes the drivers produce.
func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case int64:
		return time.UnixMilli(t).UTC(), nil
	case []byte:
		return parseTime(string(t))
	case string:
		return parseTime(t)
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func parseTime(s string) (time.Time, error) {
	// Go's time.Time.String() form, as written by some drivers
	if i := strings.Index(s, " m="); i > 0 {
		s = s[:i]
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// rebind rewrites "?" placeholders to "$n" for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
