package service

import (
	"context"
	"fmt"

	"lawnly/internal/domain"
	"lawnly/internal/models"

	"github.com/rs/zerolog"
)

// CatalogService covers the service list, provider-service links and the
// provider search used by the booking screens.
type CatalogService struct {
	accessor domain.Accessor
	logger   *zerolog.Logger
}

func NewCatalogService(accessor domain.Accessor, logger *zerolog.Logger) *CatalogService {
	return &CatalogService{accessor: accessor, logger: logger}
}

// ListServices is readable by any authenticated role. Non-admins only see
// active services.
func (s *CatalogService) ListServices(ctx context.Context, actor *models.Session, category string, limit, offset int) ([]*models.Service, error) {
	activeOnly := actor.Role != models.RoleAdmin
	return s.accessor.ListServices(ctx, category, activeOnly, limit, offset)
}

func (s *CatalogService) GetService(ctx context.Context, id string) (*models.Service, error) {
	return s.accessor.GetService(ctx, id)
}

// CreateService defines a new offering. Admin only.
func (s *CatalogService) CreateService(ctx context.Context, actor *models.Session, svc *models.Service) error {
	if actor.Role != models.RoleAdmin {
		return ErrForbidden
	}
	if svc.Name == "" {
		return fmt.Errorf("%w: service name is required", ErrValidation)
	}
	if svc.BasePrice <= 0 {
		return fmt.Errorf("%w: base price must be positive", ErrValidation)
	}
	if svc.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrValidation)
	}
	return s.accessor.CreateService(ctx, svc)
}

func (s *CatalogService) UpdateService(ctx context.Context, actor *models.Session, svc *models.Service) error {
	if actor.Role != models.RoleAdmin {
		return ErrForbidden
	}
	return s.accessor.UpdateService(ctx, svc)
}

func (s *CatalogService) SetServiceActive(ctx context.Context, actor *models.Session, id string, active bool) error {
	if actor.Role != models.RoleAdmin {
		return ErrForbidden
	}
	return s.accessor.SetServiceActive(ctx, id, active)
}

// SetProviderService declares (or updates) that a provider offers a
// service. Providers manage their own links; admins can manage any.
func (s *CatalogService) SetProviderService(ctx context.Context, actor *models.Session, link *models.ProviderService) error {
	switch actor.Role {
	case models.RoleProvider:
		link.ProviderID = actor.UserID
	case models.RoleAdmin:
		if link.ProviderID == "" {
			return fmt.Errorf("%w: provider id is required", ErrValidation)
		}
	default:
		return ErrForbidden
	}

	if _, err := s.accessor.GetService(ctx, link.ServiceID); err != nil {
		return err
	}
	return s.accessor.UpsertProviderService(ctx, link)
}

// FindProviders returns providers offering a service, optionally narrowed
// to those serving an area.
func (s *CatalogService) FindProviders(ctx context.Context, serviceID, areaID string) ([]*models.ProviderService, error) {
	return s.accessor.FindProvidersForService(ctx, serviceID, areaID)
}

func (s *CatalogService) ListProviders(ctx context.Context, limit, offset int) ([]*models.Profile, error) {
	return s.accessor.ListProviders(ctx, limit, offset)
}

// UpsertServiceArea maintains the closed list of bookable areas. Admin only.
func (s *CatalogService) UpsertServiceArea(ctx context.Context, actor *models.Session, area *models.ServiceArea) error {
	if actor.Role != models.RoleAdmin {
		return ErrForbidden
	}
	if area.Name == "" {
		return fmt.Errorf("%w: area name is required", ErrValidation)
	}
	return s.accessor.UpsertServiceArea(ctx, area)
}

func (s *CatalogService) ListServiceAreas(ctx context.Context, activeOnly bool) ([]*models.ServiceArea, error) {
	return s.accessor.ListServiceAreas(ctx, activeOnly)
}
