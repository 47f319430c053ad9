package service

import (
	"context"
	"strings"

	"lawnly/internal/domain"
	"lawnly/internal/models"

	"github.com/rs/zerolog"
)

type ProfileService struct {
	accessor domain.Accessor
	logger   *zerolog.Logger
}

func NewProfileService(accessor domain.Accessor, logger *zerolog.Logger) *ProfileService {
	return &ProfileService{accessor: accessor, logger: logger}
}

func (s *ProfileService) GetMyProfile(ctx context.Context, actor *models.Session) (*models.Profile, error) {
	return s.accessor.GetProfile(ctx, actor.UserID)
}

// GetProvider exposes a provider's public profile to any caller.
func (s *ProfileService) GetProvider(ctx context.Context, id string) (*models.Profile, error) {
	profile, err := s.accessor.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile.Role != models.RoleProvider {
		return nil, ErrForbidden
	}
	return profile, nil
}

// UpdateInput carries the mutable profile fields. Role and email stay fixed.
type UpdateInput struct {
	FullName  string
	Phone     string
	AvatarURL string

	// Customer fields.
	Address *string

	// Provider fields.
	BusinessName *string
	Bio          *string
	ServiceAreas []string
}

// UpdateMyProfile writes the display fields and the role extension in one
// go, mirroring how the profile screen saves everything at once.
func (s *ProfileService) UpdateMyProfile(ctx context.Context, actor *models.Session, input UpdateInput) (*models.Profile, error) {
	profile, err := s.accessor.GetProfile(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.FullName); name != "" {
		profile.FullName = name
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		profile.Phone = phone
	}
	if input.AvatarURL != "" {
		profile.AvatarURL = input.AvatarURL
	}

	if err := s.accessor.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}

	switch profile.Role {
	case models.RoleCustomer:
		if input.Address != nil {
			ext := profile.Customer
			if ext == nil {
				ext = &models.CustomerExtension{}
			}
			ext.Address = *input.Address
			if err := s.accessor.UpsertCustomerExtension(ctx, profile.ID, ext); err != nil {
				return nil, err
			}
			profile.Customer = ext
		}
	case models.RoleProvider:
		ext := profile.Provider
		if ext == nil {
			ext = &models.ProviderExtension{}
		}
		changed := false
		if input.BusinessName != nil {
			ext.BusinessName = *input.BusinessName
			changed = true
		}
		if input.Bio != nil {
			ext.Bio = *input.Bio
			changed = true
		}
		if input.ServiceAreas != nil {
			ext.ServiceAreas = input.ServiceAreas
			changed = true
		}
		if changed {
			if err := s.accessor.UpsertProviderExtension(ctx, profile.ID, ext); err != nil {
				return nil, err
			}
			profile.Provider = ext
		}
	}

	return profile, nil
}
