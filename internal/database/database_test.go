package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertyinsight/server/internal/mockdata"
	"propertyinsight/server/internal/models"
)

func newSeededDB(t *testing.T) *Database {
	t.Helper()

	db, err := NewTestDB()
	require.NoError(t, err)
	require.NoError(t, MigrateSchema(db))

	catalog, err := mockdata.Load()
	require.NoError(t, err)
	require.NoError(t, Seed(db, catalog))

	d := Wrap(db)
	t.Cleanup(func() { d.Close() })
	return d
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func propertyIDs(properties []models.Property) []string {
	ids := make([]string, len(properties))
	for i, p := range properties {
		ids[i] = p.ID
	}
	return ids
}

func TestSeed_IsIdempotent(t *testing.T) {
	d := newSeededDB(t)

	catalog, err := mockdata.Load()
	require.NoError(t, err)
	require.NoError(t, Seed(d.GetDB(), catalog))

	var count int64
	require.NoError(t, d.GetDB().Model(&models.Property{}).Count(&count).Error)
	assert.Equal(t, int64(len(catalog.Properties)), count)
	require.NoError(t, d.GetDB().Model(&models.Suburb{}).Count(&count).Error)
	assert.Equal(t, int64(len(catalog.Suburbs)), count)
}

func TestSearchProperties(t *testing.T) {
	d := newSeededDB(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		filters  *models.SearchFilters
		expected []string
	}{
		{name: "no filters", filters: nil, expected: []string{"1", "2", "3", "4"}},
		{name: "suburb is case insensitive", filters: &models.SearchFilters{Suburb: "parramatta"}, expected: []string{"1", "3", "4"}},
		{name: "property type", filters: &models.SearchFilters{PropertyType: "Apartment"}, expected: []string{"2", "4"}},
		{name: "price range", filters: &models.SearchFilters{MinPrice: floatPtr(700000), MaxPrice: floatPtr(900000)}, expected: []string{"1", "3"}},
		{name: "minimum bedrooms", filters: &models.SearchFilters{MinBedrooms: intPtr(4)}, expected: []string{"1"}},
		{name: "no match", filters: &models.SearchFilters{Suburb: "Liverpool"}, expected: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.SearchProperties(ctx, tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, propertyIDs(got))
		})
	}
}

func TestGetProperty(t *testing.T) {
	d := newSeededDB(t)

	p, err := d.GetProperty(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Parramatta", p.Suburb)
	assert.Equal(t, 850000.0, p.Price)
	assert.NotEmpty(t, p.Images)
	assert.True(t, p.HasCoordinates())

	_, err = d.GetProperty(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGetFeaturedProperties(t *testing.T) {
	d := newSeededDB(t)

	got, err := d.GetFeaturedProperties(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, propertyIDs(got))

	got, err = d.GetFeaturedProperties(context.Background(), 10)
	require.NoError(t, err)
	for _, p := range got {
		assert.True(t, p.Featured)
	}
}

func TestUpsertProperties(t *testing.T) {
	d := newSeededDB(t)
	db := d.GetDB()

	batch := []*models.Property{
		{ID: "1", Source: "seed", Title: "Renovated", Suburb: "Parramatta", PropertyType: "House", Price: 870000},
		{ID: "domain-9", Source: "domain", Title: "New listing", Suburb: "Chatswood", PropertyType: "Unit", Price: 990000},
	}
	require.NoError(t, UpsertProperties(db, batch))
	require.NoError(t, UpsertProperties(db, nil))

	p, err := d.GetProperty(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Renovated", p.Title)
	assert.Equal(t, 870000.0, p.Price)

	p, err = d.GetProperty(context.Background(), "domain-9")
	require.NoError(t, err)
	assert.Equal(t, "domain", p.Source)
}

func TestUpsertProperties_KeepsServerOwnedFields(t *testing.T) {
	d := newSeededDB(t)
	db := d.GetDB()
	ctx := context.Background()

	listing := func() []*models.Property {
		return []*models.Property{{
			ID: "domain-1", Source: "domain", Address: "8 Macquarie Street",
			Suburb: "Parramatta", State: "NSW", Postcode: "2150", Price: 910000,
		}}
	}
	require.NoError(t, UpsertProperties(db, listing()))

	stats, err := d.UpdateMissingCoordinates(ctx, &stubGeocoder{})
	require.NoError(t, err)
	// the new listing and seeded listing 4
	assert.Equal(t, 2, stats.Updated)

	// the source sends the listing again, still without coordinates
	again := listing()
	again[0].Price = 899000
	require.NoError(t, UpsertProperties(db, again))

	p, err := d.GetProperty(ctx, "domain-1")
	require.NoError(t, err)
	assert.Equal(t, 899000.0, p.Price)
	require.True(t, p.HasCoordinates())
	assert.Equal(t, -33.81, *p.Latitude)
	assert.Equal(t, 151.0, *p.Longitude)
	assert.True(t, p.GeocodeAttempted)

	missing, err := d.PropertiesMissingCoordinates(ctx)
	require.NoError(t, err)
	assert.NotContains(t, propertyIDs(missing), "domain-1")

	// seeded featured listing stays featured and takes new coordinates
	require.NoError(t, UpsertProperties(db, []*models.Property{{
		ID: "1", Source: "domain", Suburb: "Parramatta", Price: 860000,
		Latitude: floatPtr(-33.8), Longitude: floatPtr(151.01),
	}}))
	p, err = d.GetProperty(ctx, "1")
	require.NoError(t, err)
	assert.True(t, p.Featured)
	assert.Equal(t, -33.8, *p.Latitude)
	assert.Equal(t, 860000.0, p.Price)
}

func TestEnrichProperties(t *testing.T) {
	d := newSeededDB(t)

	batch := []*models.Property{
		{ID: "a", Suburb: "BLACKTOWN", Price: 700000},
		{ID: "b", Suburb: "Chatswood", Price: 1100000, RentalYield: 4.1, SuburbMedianPrice: 1250000},
		{ID: "c", Suburb: "Nowhere", Price: 500000},
	}
	require.NoError(t, EnrichProperties(d.GetDB(), batch))

	assert.Equal(t, 750000.0, batch[0].SuburbMedianPrice)
	assert.Equal(t, 3.9, batch[0].RentalYield)
	assert.Equal(t, 5.8, batch[0].GrowthPotential)

	assert.Equal(t, 4.1, batch[1].RentalYield)
	assert.Equal(t, 1250000.0, batch[1].SuburbMedianPrice)
	assert.Equal(t, 4.8, batch[1].SuburbGrowthRate)

	assert.Zero(t, batch[2].SuburbMedianPrice)
}

func TestGetSuburb(t *testing.T) {
	d := newSeededDB(t)

	s, err := d.GetSuburb(context.Background(), " chatswood ")
	require.NoError(t, err)
	assert.Equal(t, "Chatswood", s.Name)
	assert.Equal(t, 1300000.0, s.MedianPrice)

	_, err = d.GetSuburb(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSuburbs(t *testing.T) {
	d := newSeededDB(t)
	ctx := context.Background()

	names := func(suburbs []models.Suburb) []string {
		out := make([]string, len(suburbs))
		for i, s := range suburbs {
			out[i] = s.Name
		}
		return out
	}

	got, err := d.ListSuburbs(ctx, OrderByName, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Blacktown", "Chatswood", "Liverpool", "Parramatta"}, names(got))

	got, err = d.ListSuburbs(ctx, OrderByGrowth, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Parramatta", "Liverpool"}, names(got))

	got, err = d.ListSuburbs(ctx, OrderByRentalYield, 0)
	require.NoError(t, err)
	assert.Equal(t, "Blacktown", got[0].Name)

	_, err = d.ListSuburbs(ctx, SuburbOrder("price"), 0)
	assert.Error(t, err)
}

func TestSuggestLocations(t *testing.T) {
	d := newSeededDB(t)
	ctx := context.Background()

	got, err := d.SuggestLocations(ctx, "chat", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Chatswood, NSW 2067", got[0].DisplayName)
	assert.Equal(t, "Chatswood", got[0].Suburb)

	got, err = d.SuggestLocations(ctx, "21", 10)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = d.SuggestLocations(ctx, "  ", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	for _, wildcard := range []string{"%", "_", "p%a", "2_50"} {
		got, err = d.SuggestLocations(ctx, wildcard, 10)
		require.NoError(t, err)
		assert.Empty(t, got, "query %q", wildcard)
	}
}

func TestGetAmenitiesAndRiskFactors(t *testing.T) {
	d := newSeededDB(t)
	ctx := context.Background()

	amenities, err := d.GetAmenities(ctx, "parramatta")
	require.NoError(t, err)
	assert.Len(t, amenities, 7)

	factors, err := d.GetRiskFactors(ctx, "Chatswood")
	require.NoError(t, err)
	assert.Len(t, factors, 4)

	factors, err = d.GetRiskFactors(ctx, "Atlantis")
	require.NoError(t, err)
	assert.Empty(t, factors)
}
