package models

import "time"

// Profile is the per-identity record; one per authenticated user.
// Role is set at sign-up and immutable afterwards.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Customer *CustomerExtension `json:"customer_profile,omitempty"`
	Provider *ProviderExtension `json:"provider_profile,omitempty"`
}

// CustomerExtension carries customer-only profile fields.
type CustomerExtension struct {
	Address string `json:"address,omitempty"`
}

// ProviderExtension carries provider-only profile fields.
type ProviderExtension struct {
	BusinessName string   `json:"business_name,omitempty"`
	Bio          string   `json:"bio,omitempty"`
	ServiceAreas []string `json:"service_areas,omitempty"`
	Rating       float64  `json:"rating"`
	NumRatings   int64    `json:"num_ratings"`
	Verified     bool     `json:"verified"`
}

// ServesArea reports whether the provider declared the given area id.
func (p *ProviderExtension) ServesArea(areaID string) bool {
	if p == nil {
		return false
	}
	for _, a := range p.ServiceAreas {
		if a == areaID {
			return true
		}
	}
	return false
}
