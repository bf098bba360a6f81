package personalize

import (
	"context"

	"schoolpress-backend/internal/shared/util"
	"schoolpress-backend/internal/users"
)

// defaultOpacity is used when the stored watermark opacity is absent or
// outside [0, 1].
const defaultOpacity = 0.3

// Branding is the per-user customization applied to a worksheet.
// Immutable once built; constructed fresh per request.
type Branding struct {
	// SchoolName is sanitized display text; "" means "use the configured
	// default".
	SchoolName string
	// LogoPath is an absolute path to a trusted logo file, or "" when no
	// logo resolves.
	LogoPath string
	// Opacity is the watermark opacity in [0, 1].
	Opacity float64
}

// UserSource provides the minimal user projection branding needs.
type UserSource interface {
	GetByID(ctx context.Context, userID int64) (users.User, error)
}

// BrandingResolver derives a trusted Branding from a user record.
// Failures never propagate: a missing or broken user record yields the
// all-default descriptor, because branding must never block delivery.
type BrandingResolver struct {
	Users UserSource
	Paths *TrustedPathResolver
}

// Resolve builds the branding descriptor for a user.
func (r *BrandingResolver) Resolve(ctx context.Context, userID int64) Branding {
	branding := Branding{Opacity: defaultOpacity}
	if userID <= 0 {
		return branding
	}

	user, err := r.Users.GetByID(ctx, userID)
	if err != nil {
		return branding
	}

	branding.SchoolName = util.SanitizeDisplayName(user.SchoolName)

	// Legacy path field first, then the URL field; first trusted hit wins.
	if path := r.Paths.Resolve(user.Logo); path != "" {
		branding.LogoPath = path
	} else if path := r.Paths.Resolve(user.LogoURL); path != "" {
		branding.LogoPath = path
	}

	if user.WatermarkOpacity != nil {
		opacity := *user.WatermarkOpacity
		if opacity >= 0 && opacity <= 1 {
			branding.Opacity = opacity
		}
	}
	return branding
}
