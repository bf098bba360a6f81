package users

import "context"

var (
	ErrNotFound  = errNotFound{}
	ErrDuplicate = errDuplicate{}
)

type errNotFound struct{}

func (errNotFound) Error() string { return "user not found" }

type errDuplicate struct{}

func (errDuplicate) Error() string { return "email already registered" }

type Repo interface {
	Create(ctx context.Context, user User) (int64, error)
	GetByID(ctx context.Context, userID int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	UpdateBranding(ctx context.Context, userID int64, update BrandingUpdate) error
	UpdateLogo(ctx context.Context, userID int64, logoKey string) error
}
