package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"lawnly/internal/models"

	"github.com/google/uuid"
)

func (db *DB) UpsertProviderService(ctx context.Context, link *models.ProviderService) error {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	query := `INSERT INTO provider_services (id, provider_id, service_id, price_adjustment, is_available, created_at, updated_at)
            VALUES (?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT(provider_id, service_id) DO UPDATE SET
                price_adjustment = excluded.price_adjustment,
                is_available = excluded.is_available,
                updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query,
		link.ID, link.ProviderID, link.ServiceID, link.PriceAdjustment, link.IsAvailable, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert provider service: %w", err)
	}
	return nil
}

// ListProviderServices returns the links for a service joined with the
// service row itself.
func (db *DB) ListProviderServices(ctx context.Context, serviceID string, availableOnly bool) ([]*models.ProviderService, error) {
	query := `SELECT ps.id, ps.provider_id, ps.service_id, ps.price_adjustment, ps.is_available,
            ps.created_at, ps.updated_at,
            s.id, s.name, s.description, s.category, s.base_price, s.duration_minutes, s.active
        FROM provider_services ps
        LEFT JOIN services s ON s.id = ps.service_id
        WHERE ps.service_id = ?`
	if availableOnly {
		query += ` AND ps.is_available = 1`
	}

	rows, err := db.QueryContext(ctx, query, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list provider services: %w", err)
	}
	defer rows.Close()

	var links []*models.ProviderService
	for rows.Next() {
		var link models.ProviderService
		var svc nullService
		err := rows.Scan(
			&link.ID, &link.ProviderID, &link.ServiceID, &link.PriceAdjustment, &link.IsAvailable,
			&link.CreatedAt, &link.UpdatedAt,
			&svc.id, &svc.name, &svc.description, &svc.category, &svc.basePrice,
			&svc.durationMinutes, &svc.active)
		if err != nil {
			return nil, fmt.Errorf("failed to scan provider service: %w", err)
		}
		link.Service = svc.toModel()
		links = append(links, &link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate provider services: %w", err)
	}
	return links, nil
}

// FindProvidersForService is the two-step lookup: available links for the
// service first, then the matching provider profiles, optionally filtered
// by declared service area. Links whose provider has no profile (or fell
// out of the area filter) are dropped. Any underlying fetch error aborts
// the whole composition.
func (db *DB) FindProvidersForService(ctx context.Context, serviceID, areaID string) ([]*models.ProviderService, error) {
	links, err := db.ListProviderServices(ctx, serviceID, true)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return []*models.ProviderService{}, nil
	}

	providerIDs := make([]string, 0, len(links))
	for _, link := range links {
		providerIDs = append(providerIDs, link.ProviderID)
	}

	providers, err := db.getProviderProfilesByIDs(ctx, providerIDs)
	if err != nil {
		return nil, err
	}

	if areaID != "" {
		filtered := make(map[string]*models.Profile, len(providers))
		for id, p := range providers {
			if p.Provider.ServesArea(areaID) {
				filtered[id] = p
			}
		}
		providers = filtered
	}

	results := make([]*models.ProviderService, 0, len(links))
	for _, link := range links {
		profile, ok := providers[link.ProviderID]
		if !ok {
			continue
		}
		link.ProviderProfile = profile
		results = append(results, link)
	}
	return results, nil
}

func (db *DB) getProviderProfilesByIDs(ctx context.Context, ids []string) (map[string]*models.Profile, error) {
	placeholders := strings.Repeat("?, ", len(ids)-1) + "?"
	query := `SELECT p.id, p.email, p.role, p.full_name, p.phone, p.avatar_url, p.created_at, p.updated_at,
            COALESCE(pe.business_name, ''), COALESCE(pe.bio, ''), COALESCE(pe.service_areas, '[]'),
            COALESCE(pe.rating, 0), COALESCE(pe.num_ratings, 0), COALESCE(pe.verified, 0)
        FROM profiles p
        LEFT JOIN provider_profiles pe ON pe.user_id = p.id
        WHERE p.id IN (` + placeholders + `)`

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get provider profiles: %w", err)
	}
	defer rows.Close()

	providers := make(map[string]*models.Profile)
	for rows.Next() {
		var p models.Profile
		var ext models.ProviderExtension
		var areasJSON string

		err := rows.Scan(
			&p.ID, &p.Email, &p.Role, &p.FullName, &p.Phone, &p.AvatarURL,
			&p.CreatedAt, &p.UpdatedAt,
			&ext.BusinessName, &ext.Bio, &areasJSON,
			&ext.Rating, &ext.NumRatings, &ext.Verified)
		if err != nil {
			return nil, fmt.Errorf("failed to scan provider profile: %w", err)
		}
		if err := unmarshalAreas(areasJSON, &ext.ServiceAreas); err != nil {
			return nil, err
		}
		p.Provider = &ext
		providers[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate provider profiles: %w", err)
	}
	return providers, nil
}

func unmarshalAreas(raw string, out *[]string) error {
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to decode service areas: %w", err)
	}
	return nil
}
