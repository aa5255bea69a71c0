package profile

import "time"

// Profile is the practitioner's professional data used on letterheads and
// in the {{profissional.*}} placeholders.
type Profile struct {
	OwnerID       string    `json:"owner_id"`
	FullName      string    `json:"full_name"`
	LicenseNumber string    `json:"license_number"`
	Specialty     string    `json:"specialty"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	LetterheadURL string    `json:"letterhead_url"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type UpdateProfileRequest struct {
	FullName      string `json:"full_name" validate:"max=200"`
	LicenseNumber string `json:"license_number" validate:"max=50"`
	Specialty     string `json:"specialty" validate:"max=100"`
	Phone         string `json:"phone" validate:"max=30"`
	Email         string `json:"email" validate:"omitempty,email"`
	LetterheadURL string `json:"letterhead_url" validate:"omitempty,url"`
}

type ProfileResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Profile *Profile `json:"profile"`
}
