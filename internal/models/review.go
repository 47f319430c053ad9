package models

import "time"

// Review is left once per completed booking. There is no update path.
type Review struct {
	ID         string    `json:"id"`
	BookingID  string    `json:"booking_id"`
	ReviewerID string    `json:"reviewer_id"`
	RevieweeID string    `json:"reviewee_id"`
	Rating     int       `json:"rating"` // 1..5
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`

	Reviewer *Profile `json:"reviewer,omitempty"`
}
