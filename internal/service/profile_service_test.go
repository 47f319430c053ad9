package service

import (
	"context"
	"testing"

	"lawnly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUpdateMyProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("customer updates display fields and address", func(t *testing.T) {
		accessor := new(mockAccessor)
		svc := NewProfileService(accessor, testLogger())

		existing := &models.Profile{
			ID:       "cust-1",
			Role:     models.RoleCustomer,
			FullName: "Before",
			Customer: &models.CustomerExtension{Address: "old"},
		}
		accessor.On("GetProfile", ctx, "cust-1").Return(existing, nil)
		accessor.On("UpdateProfile", ctx, existing).Return(nil)
		accessor.On("UpsertCustomerExtension", ctx, "cust-1", existing.Customer).Return(nil)

		got, err := svc.UpdateMyProfile(ctx, customerSession("cust-1"), UpdateInput{
			FullName: "After",
			Address:  strPtr("12 Elm St"),
		})
		require.NoError(t, err)
		assert.Equal(t, "After", got.FullName)
		assert.Equal(t, "12 Elm St", got.Customer.Address)
		accessor.AssertExpectations(t)
	})

	t.Run("empty fields keep existing values", func(t *testing.T) {
		accessor := new(mockAccessor)
		svc := NewProfileService(accessor, testLogger())

		existing := &models.Profile{ID: "cust-1", Role: models.RoleCustomer, FullName: "Keep", Phone: "+1555"}
		accessor.On("GetProfile", ctx, "cust-1").Return(existing, nil)
		accessor.On("UpdateProfile", ctx, existing).Return(nil)

		got, err := svc.UpdateMyProfile(ctx, customerSession("cust-1"), UpdateInput{})
		require.NoError(t, err)
		assert.Equal(t, "Keep", got.FullName)
		assert.Equal(t, "+1555", got.Phone)
	})

	t.Run("provider updates extension", func(t *testing.T) {
		accessor := new(mockAccessor)
		svc := NewProfileService(accessor, testLogger())

		existing := &models.Profile{
			ID:       "prov-1",
			Role:     models.RoleProvider,
			Provider: &models.ProviderExtension{BusinessName: "Old Name", Rating: 4.5, NumRatings: 10},
		}
		accessor.On("GetProfile", ctx, "prov-1").Return(existing, nil)
		accessor.On("UpdateProfile", ctx, existing).Return(nil)
		accessor.On("UpsertProviderExtension", ctx, "prov-1", existing.Provider).Return(nil)

		got, err := svc.UpdateMyProfile(ctx, providerSession("prov-1"), UpdateInput{
			BusinessName: strPtr("New Name"),
			ServiceAreas: []string{"north"},
		})
		require.NoError(t, err)
		assert.Equal(t, "New Name", got.Provider.BusinessName)
		assert.Equal(t, []string{"north"}, got.Provider.ServiceAreas)
		// Rating fields ride along untouched.
		assert.Equal(t, 4.5, got.Provider.Rating)
		accessor.AssertExpectations(t)
	})
}

func TestGetProvider(t *testing.T) {
	ctx := context.Background()
	accessor := new(mockAccessor)
	svc := NewProfileService(accessor, testLogger())

	accessor.On("GetProfile", ctx, "prov-1").
		Return(&models.Profile{ID: "prov-1", Role: models.RoleProvider}, nil)
	accessor.On("GetProfile", ctx, "cust-1").
		Return(&models.Profile{ID: "cust-1", Role: models.RoleCustomer}, nil)

	got, err := svc.GetProvider(ctx, "prov-1")
	require.NoError(t, err)
	assert.Equal(t, "prov-1", got.ID)

	_, err = svc.GetProvider(ctx, "cust-1")
	assert.ErrorIs(t, err, ErrForbidden)
}
