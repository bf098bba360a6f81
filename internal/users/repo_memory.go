package users

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]User
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		nextID: 1,
		data:   make(map[int64]User),
	}
}

// Create stores a new user and returns its ID.
func (r *MemoryRepo) Create(ctx context.Context, user User) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.data {
		if strings.EqualFold(existing.Email, user.Email) {
			return 0, ErrDuplicate
		}
	}
	user.ID = r.nextID
	r.nextID++
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.data[user.ID] = user
	return user.ID, nil
}

// GetByID returns a user by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, userID int64) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.data[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

// GetByEmail returns a user by email.
func (r *MemoryRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.data {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

// UpdateBranding applies the non-nil branding fields.
func (r *MemoryRepo) UpdateBranding(ctx context.Context, userID int64, update BrandingUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.data[userID]
	if !ok {
		return ErrNotFound
	}
	if update.SchoolName != nil {
		user.SchoolName = *update.SchoolName
	}
	if update.WatermarkOpacity != nil {
		opacity := *update.WatermarkOpacity
		user.WatermarkOpacity = &opacity
	}
	user.UpdatedAt = time.Now().UTC()
	r.data[userID] = user
	return nil
}

// UpdateLogo stores the new logo storage key and clears the legacy field.
func (r *MemoryRepo) UpdateLogo(ctx context.Context, userID int64, logoKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.data[userID]
	if !ok {
		return ErrNotFound
	}
	user.Logo = ""
	user.LogoURL = logoKey
	user.UpdatedAt = time.Now().UTC()
	r.data[userID] = user
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
