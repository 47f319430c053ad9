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

func (db *DB) CreateReview(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	query := `INSERT INTO reviews (id, booking_id, reviewer_id, reviewee_id, rating, comment, created_at)
            VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		review.ID, review.BookingID, review.ReviewerID, review.RevieweeID,
		review.Rating, review.Comment, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateReview
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	review.CreatedAt = now
	return nil
}

func (db *DB) GetReviewByBooking(ctx context.Context, bookingID string) (*models.Review, error) {
	query := `SELECT id, booking_id, reviewer_id, reviewee_id, rating, comment, created_at
            FROM reviews WHERE booking_id = ?`

	var r models.Review
	err := db.QueryRowContext(ctx, query, bookingID).Scan(
		&r.ID, &r.BookingID, &r.ReviewerID, &r.RevieweeID, &r.Rating, &r.Comment, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &r, nil
}

// ListProviderReviews returns reviews about a provider newest-first with
// the reviewer's display fields attached.
func (db *DB) ListProviderReviews(ctx context.Context, revieweeID string, limit, offset int) ([]*models.Review, error) {
	if limit <= 0 {
		limit = models.DefaultListLimit
	}

	query := `SELECT r.id, r.booking_id, r.reviewer_id, r.reviewee_id, r.rating, r.comment, r.created_at,
            p.id, p.role, p.full_name, p.phone, p.avatar_url
        FROM reviews r
        LEFT JOIN profiles p ON p.id = r.reviewer_id
        WHERE r.reviewee_id = ?
        ORDER BY r.created_at DESC
        LIMIT ? OFFSET ?`

	rows, err := db.QueryContext(ctx, query, revieweeID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*models.Review
	for rows.Next() {
		var r models.Review
		var reviewer nullProfile
		err := rows.Scan(
			&r.ID, &r.BookingID, &r.ReviewerID, &r.RevieweeID, &r.Rating, &r.Comment, &r.CreatedAt,
			&reviewer.id, &reviewer.role, &reviewer.fullName, &reviewer.phone, &reviewer.avatarURL)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		r.Reviewer = reviewer.toModel()
		reviews = append(reviews, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}
	return reviews, nil
}
