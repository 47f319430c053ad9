package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"lawnly/internal/models"

	"github.com/google/uuid"
)

const bookingColumns = `b.id, b.customer_id, b.provider_id, b.service_id, b.status,
        b.booking_date, b.start_time, b.end_time, b.total_price, b.address, b.notes,
        b.created_at, b.updated_at`

const serviceJoinColumns = `s.id, s.name, s.description, s.category, s.base_price,
        s.duration_minutes, s.active`

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	// Every booking starts pending regardless of what the caller set.
	booking.Status = models.StatusPending

	now := time.Now().UTC()
	query := `INSERT INTO bookings (
                id, customer_id, provider_id, service_id, status,
                booking_date, start_time, end_time, total_price, address, notes,
                created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		booking.ID,
		booking.CustomerID,
		booking.ProviderID,
		booking.ServiceID,
		booking.Status,
		booking.BookingDate,
		booking.StartTime,
		booking.EndTime,
		booking.TotalPrice,
		booking.Address,
		booking.Notes,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

// GetBooking returns the booking joined with service and both profiles'
// display fields.
func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + `, ` + serviceJoinColumns + `,
            cp.id, cp.role, cp.full_name, cp.phone, cp.avatar_url,
            pp.id, pp.role, pp.full_name, pp.phone, pp.avatar_url,
            COALESCE(pe.business_name, '')
        FROM bookings b
        LEFT JOIN services s ON s.id = b.service_id
        LEFT JOIN profiles cp ON cp.id = b.customer_id
        LEFT JOIN profiles pp ON pp.id = b.provider_id
        LEFT JOIN provider_profiles pe ON pe.user_id = b.provider_id
        WHERE b.id = ?`

	row := db.QueryRowContext(ctx, query, id)

	var b models.Booking
	var svc nullService
	var cust, prov nullProfile
	var businessName string

	err := row.Scan(
		&b.ID, &b.CustomerID, &b.ProviderID, &b.ServiceID, &b.Status,
		&b.BookingDate, &b.StartTime, &b.EndTime, &b.TotalPrice, &b.Address, &b.Notes,
		&b.CreatedAt, &b.UpdatedAt,
		&svc.id, &svc.name, &svc.description, &svc.category, &svc.basePrice,
		&svc.durationMinutes, &svc.active,
		&cust.id, &cust.role, &cust.fullName, &cust.phone, &cust.avatarURL,
		&prov.id, &prov.role, &prov.fullName, &prov.phone, &prov.avatarURL,
		&businessName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	b.Service = svc.toModel()
	b.Customer = cust.toModel()
	b.Provider = prov.toModel()
	if b.Provider != nil && businessName != "" {
		b.Provider.Provider = &models.ProviderExtension{BusinessName: businessName}
	}
	return &b, nil
}

// GetCustomerBookings returns the customer's bookings newest-first,
// optionally filtered by status, joined with service and provider display
// fields.
func (db *DB) GetCustomerBookings(ctx context.Context, customerID string, status models.BookingStatus) ([]*models.Booking, error) {
	return db.listBookings(ctx, "b.customer_id", customerID, "b.provider_id", status)
}

// GetProviderBookings is symmetric: joined with customer display fields.
func (db *DB) GetProviderBookings(ctx context.Context, providerID string, status models.BookingStatus) ([]*models.Booking, error) {
	return db.listBookings(ctx, "b.provider_id", providerID, "b.customer_id", status)
}

func (db *DB) listBookings(ctx context.Context, ownerColumn, ownerID, joinColumn string, status models.BookingStatus) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + `, ` + serviceJoinColumns + `,
            p.id, p.role, p.full_name, p.phone, p.avatar_url,
            COALESCE(pe.business_name, '')
        FROM bookings b
        LEFT JOIN services s ON s.id = b.service_id
        LEFT JOIN profiles p ON p.id = ` + joinColumn + `
        LEFT JOIN provider_profiles pe ON pe.user_id = ` + joinColumn + `
        WHERE ` + ownerColumn + ` = ?`
	args := []interface{}{ownerID}

	if status != "" {
		query += ` AND b.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY b.booking_date DESC, b.created_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	joinedIsProvider := joinColumn == "b.provider_id"

	var bookings []*models.Booking
	for rows.Next() {
		var b models.Booking
		var svc nullService
		var joined nullProfile
		var businessName string

		err := rows.Scan(
			&b.ID, &b.CustomerID, &b.ProviderID, &b.ServiceID, &b.Status,
			&b.BookingDate, &b.StartTime, &b.EndTime, &b.TotalPrice, &b.Address, &b.Notes,
			&b.CreatedAt, &b.UpdatedAt,
			&svc.id, &svc.name, &svc.description, &svc.category, &svc.basePrice,
			&svc.durationMinutes, &svc.active,
			&joined.id, &joined.role, &joined.fullName, &joined.phone, &joined.avatarURL,
			&businessName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}

		b.Service = svc.toModel()
		profile := joined.toModel()
		if joinedIsProvider {
			if profile != nil && businessName != "" {
				profile.Provider = &models.ProviderExtension{BusinessName: businessName}
			}
			b.Provider = profile
		} else {
			b.Customer = profile
		}
		bookings = append(bookings, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

func (db *DB) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + `, ` + serviceJoinColumns + `,
            p.id, p.role, p.full_name, p.phone, p.avatar_url,
            COALESCE(pe.business_name, '')
        FROM bookings b
        LEFT JOIN services s ON s.id = b.service_id
        LEFT JOIN profiles p ON p.id = b.provider_id
        LEFT JOIN provider_profiles pe ON pe.user_id = b.provider_id
        WHERE b.booking_date >= ? AND b.booking_date <= ?
        ORDER BY b.booking_date ASC, b.start_time ASC`

	rows, err := db.QueryContext(ctx, query, start.Format(models.DateLayout), end.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by date range: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		var b models.Booking
		var svc nullService
		var prov nullProfile
		var businessName string

		err := rows.Scan(
			&b.ID, &b.CustomerID, &b.ProviderID, &b.ServiceID, &b.Status,
			&b.BookingDate, &b.StartTime, &b.EndTime, &b.TotalPrice, &b.Address, &b.Notes,
			&b.CreatedAt, &b.UpdatedAt,
			&svc.id, &svc.name, &svc.description, &svc.category, &svc.basePrice,
			&svc.durationMinutes, &svc.active,
			&prov.id, &prov.role, &prov.fullName, &prov.phone, &prov.avatarURL,
			&businessName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}

		b.Service = svc.toModel()
		b.Provider = prov.toModel()
		if b.Provider != nil && businessName != "" {
			b.Provider.Provider = &models.ProviderExtension{BusinessName: businessName}
		}
		bookings = append(bookings, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

// UpdateBookingStatus applies a lifecycle transition. The allowed prior
// statuses are enforced in the UPDATE itself so two racing writers cannot
// both move the booking; the loser gets ErrInvalidTransition.
func (db *DB) UpdateBookingStatus(ctx context.Context, id string, next models.BookingStatus) (*models.Booking, error) {
	prior := allowedPriorStatuses(next)
	if len(prior) == 0 {
		return nil, ErrInvalidTransition
	}

	placeholders := strings.Repeat("?, ", len(prior)-1) + "?"
	query := `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status IN (` + placeholders + `)`

	args := []interface{}{next, time.Now().UTC(), id}
	for _, s := range prior {
		args = append(args, s)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing booking from an illegal transition.
		var current models.BookingStatus
		err := db.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ?`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to check booking status: %w", err)
		}
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}

	return db.GetBooking(ctx, id)
}

// DeleteBooking hard-deletes a row. Not used by the normal flow; admin only.
func (db *DB) DeleteBooking(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
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

// allowedPriorStatuses inverts models.CanTransitionTo for the SQL guard.
func allowedPriorStatuses(next models.BookingStatus) []models.BookingStatus {
	var prior []models.BookingStatus
	for _, s := range models.AllStatuses {
		if s.CanTransitionTo(next) {
			prior = append(prior, s)
		}
	}
	return prior
}

type nullService struct {
	id              sql.NullString
	name            sql.NullString
	description     sql.NullString
	category        sql.NullString
	basePrice       sql.NullFloat64
	durationMinutes sql.NullInt64
	active          sql.NullBool
}

func (s nullService) toModel() *models.Service {
	if !s.id.Valid {
		return nil
	}
	return &models.Service{
		ID:              s.id.String,
		Name:            s.name.String,
		Description:     s.description.String,
		Category:        s.category.String,
		BasePrice:       s.basePrice.Float64,
		DurationMinutes: s.durationMinutes.Int64,
		Active:          s.active.Bool,
	}
}

type nullProfile struct {
	id        sql.NullString
	role      sql.NullString
	fullName  sql.NullString
	phone     sql.NullString
	avatarURL sql.NullString
}

func (p nullProfile) toModel() *models.Profile {
	if !p.id.Valid {
		return nil
	}
	return &models.Profile{
		ID:        p.id.String,
		Role:      models.Role(p.role.String),
		FullName:  p.fullName.String,
		Phone:     p.phone.String,
		AvatarURL: p.avatarURL.String,
	}
}
