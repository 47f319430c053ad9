package service

import (
	"context"
	"fmt"

	"lawnly/internal/domain"
	"lawnly/internal/events"
	"lawnly/internal/models"

	"github.com/rs/zerolog"
)

type ReviewService struct {
	accessor domain.Accessor
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewReviewService(accessor domain.Accessor, eventBus domain.EventPublisher, logger *zerolog.Logger) *ReviewService {
	return &ReviewService{accessor: accessor, eventBus: eventBus, logger: logger}
}

// CreateReview lets the customer of a completed booking rate its provider.
// One review per booking; the provider's running average is updated in the
// same call.
func (s *ReviewService) CreateReview(ctx context.Context, actor *models.Session, review *models.Review) error {
	if actor.Role != models.RoleCustomer {
		return ErrForbidden
	}
	if review.Rating < models.MinRating || review.Rating > models.MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", ErrValidation, models.MinRating, models.MaxRating)
	}

	booking, err := s.accessor.GetBooking(ctx, review.BookingID)
	if err != nil {
		return err
	}
	if booking.CustomerID != actor.UserID {
		return ErrForbidden
	}
	if booking.Status != models.StatusCompleted {
		return fmt.Errorf("%w: only completed bookings can be reviewed", ErrValidation)
	}

	review.ReviewerID = actor.UserID
	review.RevieweeID = booking.ProviderID

	if err := s.accessor.CreateReview(ctx, review); err != nil {
		return err
	}

	if err := s.recalculateRating(ctx, booking.ProviderID, review.Rating); err != nil {
		s.logger.Error().Err(err).Str("provider_id", booking.ProviderID).Msg("rating update error")
	}

	if s.eventBus != nil {
		payload := events.ReviewEventPayload{
			ReviewID:   review.ID,
			BookingID:  review.BookingID,
			ReviewerID: review.ReviewerID,
			RevieweeID: review.RevieweeID,
			Rating:     review.Rating,
		}
		if err := s.eventBus.PublishJSON(events.EventReviewCreated, payload); err != nil {
			s.logger.Error().Err(err).Str("review_id", review.ID).Msg("publish event error")
		}
	}

	return nil
}

func (s *ReviewService) recalculateRating(ctx context.Context, providerID string, newRating int) error {
	profile, err := s.accessor.GetProfile(ctx, providerID)
	if err != nil {
		return err
	}

	var rating float64
	var count int64
	if profile.Provider != nil {
		rating = profile.Provider.Rating
		count = profile.Provider.NumRatings
	}

	updated := (rating*float64(count) + float64(newRating)) / float64(count+1)
	return s.accessor.UpdateProviderRating(ctx, providerID, updated, count+1)
}

func (s *ReviewService) GetReviewByBooking(ctx context.Context, bookingID string) (*models.Review, error) {
	return s.accessor.GetReviewByBooking(ctx, bookingID)
}

func (s *ReviewService) ListProviderReviews(ctx context.Context, providerID string, limit, offset int) ([]*models.Review, error) {
	return s.accessor.ListProviderReviews(ctx, providerID, limit, offset)
}
