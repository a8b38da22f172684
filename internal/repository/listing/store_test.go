package listing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/gymdex/internal/domain"
	"github.com/kailas-cloud/gymdex/internal/domain/listing"
)

var created = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))

	_, err = s.db.ExecContext(ctx, `INSERT INTO attributes (id, name, category) VALUES
		('a1', 'Squat Rack', 'equipment'),
		('a2', 'Sauna', 'amenity'),
		('a3', 'Yoga', 'class')`)
	require.NoError(t, err)
	return s
}

func insertListing(t *testing.T, s *Store, id, status string, hours any) {
	t.Helper()
	_, err := s.db.ExecContext(context.Background(), `INSERT INTO listings
		(id, slug, name, gym_type, price_range, address, city, state, country, latitude, longitude,
		 hours, status, subscription_tier, created_at, updated_at)
		VALUES (?, ?, ?, 'crossfit', '$$', '1 Main St', 'Austin', 'TX', 'US', 30.26, -97.74, ?, ?, 'premium', ?, ?)`,
		id, "slug-"+id, "Gym "+id, hours, status, created, created.Add(time.Hour))
	require.NoError(t, err)
}

func TestGet(t *testing.T) {
	s := newTestStore(t)
	insertListing(t, s, "g1", "verified", `{"Monday":{"open":"00:00","close":"24:00"}}`)
	_, err := s.db.ExecContext(context.Background(), `INSERT INTO listing_attributes
		(listing_id, attribute_id, value, quantity) VALUES ('g1', 'a1', 'olympic', 4), ('g1', 'a2', NULL, NULL)`)
	require.NoError(t, err)

	l, err := s.Get(context.Background(), "g1")
	require.NoError(t, err)

	assert.Equal(t, "slug-g1", l.Slug)
	assert.Equal(t, listing.StatusVerified, l.Status)
	assert.Equal(t, listing.TierPremium, l.Tier)
	assert.Equal(t, "", l.Description)
	assert.InDelta(t, 30.26, l.Latitude, 1e-9)
	assert.True(t, l.Hours.OpenAllDay())
	assert.True(t, l.CreatedAt.Equal(created), "created_at = %v", l.CreatedAt)
	assert.True(t, l.UpdatedAt.After(l.CreatedAt))

	require.Len(t, l.Attributes, 2)
	sauna, rack := l.Attributes[0], l.Attributes[1]
	assert.Equal(t, "Sauna", sauna.Name)
	assert.Nil(t, sauna.Value)
	assert.Equal(t, listing.CategoryEquipment, rack.Category)
	require.NotNil(t, rack.Quantity)
	assert.Equal(t, 4, *rack.Quantity)
	assert.Equal(t, "olympic", *rack.Value)
}

func TestGet_IneligibleIsReturned(t *testing.T) {
	s := newTestStore(t)
	insertListing(t, s, "p1", "pending", nil)

	l, err := s.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, l.Eligible())
	assert.Nil(t, l.Hours)
	assert.Empty(t, l.Attributes)
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrListingNotFound), "err = %v", err)
}

func TestListEligible_Pages(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 7; i++ {
		insertListing(t, s, fmt.Sprintf("e%02d", i), "claimed", nil)
	}
	insertListing(t, s, "x1", "suspended", nil)
	insertListing(t, s, "x2", "pending", nil)
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO listing_attributes (listing_id, attribute_id) VALUES ('e05', 'a3'), ('x1', 'a3')`)
	require.NoError(t, err)

	var seen []string
	for offset := 0; ; offset += 3 {
		page, err := s.ListEligible(context.Background(), offset, 3)
		require.NoError(t, err)
		assert.Equal(t, 7, page.Total)
		if len(page.Listings) == 0 {
			break
		}
		for _, l := range page.Listings {
			assert.True(t, l.Eligible(), "listing %s", l.ID)
			if l.ID == "e05" {
				require.Len(t, l.Attributes, 1)
				assert.Equal(t, "Yoga", l.Attributes[0].Name)
			}
			seen = append(seen, l.ID)
		}
	}
	assert.Equal(t, []string{"e00", "e01", "e02", "e03", "e04", "e05", "e06"}, seen)
}

func TestListEligible_InvalidPage(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ListEligible(context.Background(), -1, 10)
	assert.Error(t, err)
	_, err = s.ListEligible(context.Background(), 0, 0)
	assert.Error(t, err)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	assert.Error(t, err)
	_, err = Open(context.Background(), DriverSQLite, "")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	assert.Equal(t, "SELECT 1 WHERE a IN ($1, $2) LIMIT $3", pg.rebind("SELECT 1 WHERE a IN ("+placeholders(2)+") LIMIT ?"))

	lite := &Store{driver: DriverSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestToTime(t *testing.T) {
	want := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, v := range []any{
		want,
		want.UnixMilli(),
		"2024-05-01T12:00:00Z",
		"2024-05-01 12:00:00",
		[]byte("2024-05-01 12:00:00+00:00"),
	} {
		got, err := toTime(v)
		require.NoError(t, err, "%T %v", v, v)
		assert.True(t, got.Equal(want), "%v -> %v", v, got)
	}

	_, err := toTime("yesterday")
	assert.Error(t, err)
	_, err = toTime(3.5)
	assert.Error(t, err)
}
