package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lawnly/internal/models"

	"github.com/google/uuid"
)

func (db *DB) CreateService(ctx context.Context, service *models.Service) error {
	if service.ID == "" {
		service.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	query := `INSERT INTO services (id, name, description, category, base_price, duration_minutes, active, created_at, updated_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		service.ID, service.Name, service.Description, service.Category,
		service.BasePrice, service.DurationMinutes, service.Active, now, now)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	service.CreatedAt = now
	service.UpdatedAt = now
	return nil
}

func (db *DB) GetService(ctx context.Context, id string) (*models.Service, error) {
	query := `SELECT id, name, description, category, base_price, duration_minutes, active, created_at, updated_at
            FROM services WHERE id = ?`

	var s models.Service
	err := db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.Description, &s.Category, &s.BasePrice,
		&s.DurationMinutes, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return &s, nil
}

func (db *DB) UpdateService(ctx context.Context, service *models.Service) error {
	result, err := db.ExecContext(ctx,
		`UPDATE services SET name = ?, description = ?, category = ?, base_price = ?,
            duration_minutes = ?, active = ?, updated_at = ? WHERE id = ?`,
		service.Name, service.Description, service.Category, service.BasePrice,
		service.DurationMinutes, service.Active, time.Now().UTC(), service.ID)
	if err != nil {
		return fmt.Errorf("failed to update service: %w", err)
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

// ListServices returns services ordered by name, optionally filtered by
// category and restricted to active offerings.
func (db *DB) ListServices(ctx context.Context, category string, activeOnly bool, limit, offset int) ([]*models.Service, error) {
	if limit <= 0 {
		limit = models.DefaultListLimit
	}

	query := `SELECT id, name, description, category, base_price, duration_minutes, active, created_at, updated_at
            FROM services WHERE 1=1`
	var args []interface{}

	if activeOnly {
		query += ` AND active = 1`
	}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY name ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var services []*models.Service
	for rows.Next() {
		var s models.Service
		err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Category, &s.BasePrice,
			&s.DurationMinutes, &s.Active, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate services: %w", err)
	}
	return services, nil
}

func (db *DB) SetServiceActive(ctx context.Context, id string, active bool) error {
	result, err := db.ExecContext(ctx,
		`UPDATE services SET active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set service active: %w", err)
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

func (db *DB) UpsertServiceArea(ctx context.Context, area *models.ServiceArea) error {
	if area.ID == "" {
		area.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	query := `INSERT INTO service_areas (id, name, description, active, created_at, updated_at)
            VALUES (?, ?, ?, ?, ?, ?)
            ON CONFLICT(id) DO UPDATE SET
                name = excluded.name,
                description = excluded.description,
                active = excluded.active,
                updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query, area.ID, area.Name, area.Description, area.Active, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert service area: %w", err)
	}
	return nil
}

func (db *DB) ListServiceAreas(ctx context.Context, activeOnly bool) ([]*models.ServiceArea, error) {
	query := `SELECT id, name, description, active, created_at, updated_at FROM service_areas`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY name ASC`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list service areas: %w", err)
	}
	defer rows.Close()

	var areas []*models.ServiceArea
	for rows.Next() {
		var a models.ServiceArea
		err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Active, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service area: %w", err)
		}
		areas = append(areas, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate service areas: %w", err)
	}
	return areas, nil
}
