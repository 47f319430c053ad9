package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lawnly/internal/models"
)

func (db *DB) CreateProfile(ctx context.Context, profile *models.Profile) error {
	now := time.Now().UTC()
	query := `INSERT INTO profiles (id, email, role, full_name, phone, avatar_url, created_at, updated_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		profile.ID, profile.Email, profile.Role, profile.FullName,
		profile.Phone, profile.AvatarURL, now, now)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	profile.CreatedAt = now
	profile.UpdatedAt = now
	return nil
}

// GetProfile returns the profile with its role-specific extension attached.
func (db *DB) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT id, email, role, full_name, phone, avatar_url, created_at, updated_at
            FROM profiles WHERE id = ?`

	var p models.Profile
	err := db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Email, &p.Role, &p.FullName, &p.Phone, &p.AvatarURL,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	switch p.Role {
	case models.RoleCustomer:
		ext, err := db.getCustomerExtension(ctx, id)
		if err != nil {
			return nil, err
		}
		p.Customer = ext
	case models.RoleProvider:
		ext, err := db.getProviderExtension(ctx, id)
		if err != nil {
			return nil, err
		}
		p.Provider = ext
	}
	return &p, nil
}

// UpdateProfile writes the mutable display fields. Role is immutable after
// creation and is deliberately left out of the statement.
func (db *DB) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	result, err := db.ExecContext(ctx,
		`UPDATE profiles SET full_name = ?, phone = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
		profile.FullName, profile.Phone, profile.AvatarURL, time.Now().UTC(), profile.ID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) UpsertCustomerExtension(ctx context.Context, userID string, ext *models.CustomerExtension) error {
	query := `INSERT INTO customer_profiles (user_id, address) VALUES (?, ?)
            ON CONFLICT(user_id) DO UPDATE SET address = excluded.address`
	if _, err := db.ExecContext(ctx, query, userID, ext.Address); err != nil {
		return fmt.Errorf("failed to upsert customer profile: %w", err)
	}
	return nil
}

func (db *DB) UpsertProviderExtension(ctx context.Context, userID string, ext *models.ProviderExtension) error {
	areas, err := json.Marshal(ext.ServiceAreas)
	if err != nil {
		return fmt.Errorf("failed to encode service areas: %w", err)
	}

	query := `INSERT INTO provider_profiles (user_id, business_name, bio, service_areas, rating, num_ratings, verified)
            VALUES (?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT(user_id) DO UPDATE SET
                business_name = excluded.business_name,
                bio = excluded.bio,
                service_areas = excluded.service_areas,
                verified = excluded.verified`
	_, err = db.ExecContext(ctx, query,
		userID, ext.BusinessName, ext.Bio, string(areas), ext.Rating, ext.NumRatings, ext.Verified)
	if err != nil {
		return fmt.Errorf("failed to upsert provider profile: %w", err)
	}
	return nil
}

func (db *DB) ListProviders(ctx context.Context, limit, offset int) ([]*models.Profile, error) {
	if limit <= 0 {
		limit = models.DefaultListLimit
	}

	query := `SELECT p.id, p.email, p.role, p.full_name, p.phone, p.avatar_url, p.created_at, p.updated_at,
            COALESCE(pe.business_name, ''), COALESCE(pe.bio, ''), COALESCE(pe.service_areas, '[]'),
            COALESCE(pe.rating, 0), COALESCE(pe.num_ratings, 0), COALESCE(pe.verified, 0)
        FROM profiles p
        LEFT JOIN provider_profiles pe ON pe.user_id = p.id
        WHERE p.role = ?
        ORDER BY p.full_name ASC
        LIMIT ? OFFSET ?`

	rows, err := db.QueryContext(ctx, query, models.RoleProvider, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	defer rows.Close()

	var providers []*models.Profile
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
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		if err := json.Unmarshal([]byte(areasJSON), &ext.ServiceAreas); err != nil {
			return nil, fmt.Errorf("failed to decode service areas: %w", err)
		}
		p.Provider = &ext
		providers = append(providers, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate providers: %w", err)
	}
	return providers, nil
}

func (db *DB) UpdateProviderRating(ctx context.Context, providerID string, rating float64, numRatings int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE provider_profiles SET rating = ?, num_ratings = ? WHERE user_id = ?`,
		rating, numRatings, providerID)
	if err != nil {
		return fmt.Errorf("failed to update provider rating: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) getCustomerExtension(ctx context.Context, userID string) (*models.CustomerExtension, error) {
	var ext models.CustomerExtension
	err := db.QueryRowContext(ctx,
		`SELECT address FROM customer_profiles WHERE user_id = ?`, userID).Scan(&ext.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer profile: %w", err)
	}
	return &ext, nil
}

func (db *DB) getProviderExtension(ctx context.Context, userID string) (*models.ProviderExtension, error) {
	var ext models.ProviderExtension
	var areasJSON string
	err := db.QueryRowContext(ctx,
		`SELECT business_name, bio, service_areas, rating, num_ratings, verified
            FROM provider_profiles WHERE user_id = ?`, userID).Scan(
		&ext.BusinessName, &ext.Bio, &areasJSON, &ext.Rating, &ext.NumRatings, &ext.Verified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provider profile: %w", err)
	}
	if err := json.Unmarshal([]byte(areasJSON), &ext.ServiceAreas); err != nil {
		return nil, fmt.Errorf("failed to decode service areas: %w", err)
	}
	return &ext, nil
}
