package models

const (
	// DateLayout is the wire format for booking_date.
	DateLayout = "2006-01-02"

	// TimeLayout is the wire format for start_time / end_time.
	TimeLayout = "15:04"

	// DefaultSessionTTL is the server-side session lifetime in seconds.
	DefaultSessionTTL = 24 * 60 * 60

	// DefaultAccessTokenTTL is the JWT lifetime in seconds.
	DefaultAccessTokenTTL = 60 * 60

	// ResetTokenTTL is the password-reset token lifetime in seconds.
	ResetTokenTTL = 15 * 60

	// DefaultListLimit caps list endpoints when the caller gives no limit.
	DefaultListLimit = 50

	// WorkerQueueSize is the in-memory fallback queue capacity.
	WorkerQueueSize = 1000

	// MinRating and MaxRating bound review ratings.
	MinRating = 1
	MaxRating = 5
)
