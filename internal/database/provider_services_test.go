package database

import (
	"context"
	"testing"

	"lawnly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertProviderService(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	provider := seedUser(t, db, models.RoleProvider, "p@example.com", "Provider")
	svc := seedService(t, db, "Mowing", 45)

	link := &models.ProviderService{
		ProviderID:      provider.ID,
		ServiceID:       svc.ID,
		PriceAdjustment: 5,
		IsAvailable:     true,
	}
	require.NoError(t, db.UpsertProviderService(ctx, link))

	// Same provider+service pair updates in place.
	link.PriceAdjustment = -10
	link.IsAvailable = false
	require.NoError(t, db.UpsertProviderService(ctx, link))

	links, err := db.ListProviderServices(ctx, svc.ID, false)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, -10.0, links[0].PriceAdjustment)
	assert.False(t, links[0].IsAvailable)
	require.NotNil(t, links[0].Service)
	assert.Equal(t, "Mowing", links[0].Service.Name)
}

func TestFindProvidersForService(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	svc := seedService(t, db, "Mowing", 45)

	north := seedUser(t, db, models.RoleProvider, "north@example.com", "North Crew")
	require.NoError(t, db.UpsertProviderExtension(ctx, north.ID,
		&models.ProviderExtension{BusinessName: "North Crew", ServiceAreas: []string{"north", "central"}}))

	east := seedUser(t, db, models.RoleProvider, "east@example.com", "East Crew")
	require.NoError(t, db.UpsertProviderExtension(ctx, east.ID,
		&models.ProviderExtension{BusinessName: "East Crew", ServiceAreas: []string{"east"}}))

	paused := seedUser(t, db, models.RoleProvider, "paused@example.com", "Paused Crew")
	require.NoError(t, db.UpsertProviderExtension(ctx, paused.ID,
		&models.ProviderExtension{ServiceAreas: []string{"north"}}))

	for _, link := range []*models.ProviderService{
		{ProviderID: north.ID, ServiceID: svc.ID, IsAvailable: true},
		{ProviderID: east.ID, ServiceID: svc.ID, IsAvailable: true},
		{ProviderID: paused.ID, ServiceID: svc.ID, IsAvailable: false},
	} {
		require.NoError(t, db.UpsertProviderService(ctx, link))
	}

	t.Run("available providers only", func(t *testing.T) {
		results, err := db.FindProvidersForService(ctx, svc.ID, "")
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			require.NotNil(t, r.ProviderProfile)
			assert.NotEqual(t, paused.ID, r.ProviderID)
		}
	})

	t.Run("area filter drops non-matching providers", func(t *testing.T) {
		results, err := db.FindProvidersForService(ctx, svc.ID, "north")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, north.ID, results[0].ProviderID)
		require.NotNil(t, results[0].ProviderProfile.Provider)
		assert.Equal(t, "North Crew", results[0].ProviderProfile.Provider.BusinessName)
	})

	t.Run("no providers in area", func(t *testing.T) {
		results, err := db.FindProvidersForService(ctx, svc.ID, "west")
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("unknown service yields empty slice", func(t *testing.T) {
		results, err := db.FindProvidersForService(ctx, "missing", "")
		require.NoError(t, err)
		require.NotNil(t, results)
		assert.Empty(t, results)
	})
}

func TestServices(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	mowing := seedService(t, db, "Mowing", 45)
	edging := &models.Service{Name: "Edging", Category: "detail", BasePrice: 25, DurationMinutes: 30, Active: true}
	require.NoError(t, db.CreateService(ctx, edging))

	t.Run("ordered by name", func(t *testing.T) {
		services, err := db.ListServices(ctx, "", true, 10, 0)
		require.NoError(t, err)
		require.Len(t, services, 2)
		assert.Equal(t, "Edging", services[0].Name)
		assert.Equal(t, "Mowing", services[1].Name)
	})

	t.Run("category filter", func(t *testing.T) {
		services, err := db.ListServices(ctx, "detail", true, 10, 0)
		require.NoError(t, err)
		require.Len(t, services, 1)
		assert.Equal(t, edging.ID, services[0].ID)
	})

	t.Run("deactivated services excluded", func(t *testing.T) {
		require.NoError(t, db.SetServiceActive(ctx, mowing.ID, false))

		active, err := db.ListServices(ctx, "", true, 10, 0)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, edging.ID, active[0].ID)

		all, err := db.ListServices(ctx, "", false, 10, 0)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("update", func(t *testing.T) {
		mowing.BasePrice = 55
		require.NoError(t, db.UpdateService(ctx, mowing))

		got, err := db.GetService(ctx, mowing.ID)
		require.NoError(t, err)
		assert.Equal(t, 55.0, got.BasePrice)
	})

	t.Run("missing service", func(t *testing.T) {
		_, err := db.GetService(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestServiceAreas(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	north := &models.ServiceArea{Name: "North", Active: true}
	require.NoError(t, db.UpsertServiceArea(ctx, north))
	require.NoError(t, db.UpsertServiceArea(ctx, &models.ServiceArea{Name: "South", Active: false}))

	active, err := db.ListServiceAreas(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "North", active[0].Name)

	north.Description = "Everything above the river"
	require.NoError(t, db.UpsertServiceArea(ctx, north))

	all, err := db.ListServiceAreas(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Everything above the river", all[0].Description)
}
