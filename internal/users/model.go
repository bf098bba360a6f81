package users

import "time"

// User is a school account. SchoolName, Logo, LogoURL and
// WatermarkOpacity drive worksheet personalization; Logo holds the legacy
// relative path field, LogoURL the newer URL-shaped reference.
type User struct {
	ID               int64      `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	FullName         string     `json:"fullName"`
	Role             string     `json:"role"`
	SchoolName       string     `json:"schoolName"`
	Logo             string     `json:"logo"`
	LogoURL          string     `json:"logoUrl"`
	WatermarkOpacity *float64   `json:"worksheetWatermarkOpacity,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// BrandingUpdate carries the mutable branding fields; nil means unchanged.
type BrandingUpdate struct {
	SchoolName       *string
	WatermarkOpacity *float64
}
