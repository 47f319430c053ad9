package models

import "time"

// Service is a bookable offering defined by an admin.
// Referenced by bookings, never owned by them.
type Service struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Category        string    `json:"category"`
	BasePrice       float64   `json:"base_price"`
	DurationMinutes int64     `json:"duration_minutes"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ProviderService records that a provider offers a service, with an
// optional price adjustment and an availability flag.
type ProviderService struct {
	ID              string    `json:"id"`
	ProviderID      string    `json:"provider_id"`
	ServiceID       string    `json:"service_id"`
	PriceAdjustment float64   `json:"price_adjustment"`
	IsAvailable     bool      `json:"is_available"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Service *Service `json:"service,omitempty"`
	// Provider profile matched during provider search. Entries whose
	// provider could not be matched are dropped from results.
	ProviderProfile *Profile `json:"provider_profile,omitempty"`
}

// ServiceArea is a named geographic area providers can declare.
type ServiceArea struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
