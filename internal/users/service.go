package users

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	sharedauth "schoolpress-backend/internal/shared/auth"
	"schoolpress-backend/internal/shared/storage/object"
	"schoolpress-backend/internal/shared/util"
)

var ErrInvalidInput = errors.New("invalid input")

const maxLogoBytes = 2 << 20 // 2MB

// BrandingInvalidator drops cached personalized PDFs for a user after a
// branding change. Wired to the personalization cache at bootstrap.
type BrandingInvalidator interface {
	InvalidateUser(userID int64)
}

// Service contains business logic for user accounts and branding.
type Service struct {
	Repo        Repo
	Store       object.ObjectStore
	Invalidator BrandingInvalidator
	AdminEmails []string
}

// NewService constructs a Service.
func NewService(repo Repo, store object.ObjectStore, invalidator BrandingInvalidator, adminEmails []string) *Service {
	return &Service{Repo: repo, Store: store, Invalidator: invalidator, AdminEmails: adminEmails}
}

// Register creates a new account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, email, password, fullName string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return User{}, fmt.Errorf("%w: valid email required", ErrInvalidInput)
	}
	if len(password) < 8 {
		return User{}, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return User{}, err
	}

	role := sharedauth.RoleTeacher
	for _, admin := range s.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(admin), email) {
			role = sharedauth.RoleAdmin
			break
		}
	}

	user := User{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(fullName),
		Role:         role,
	}
	id, err := s.Repo.Create(ctx, user)
	if err != nil {
		return User{}, err
	}
	return s.Repo.GetByID(ctx, id)
}

// Authenticate checks the credentials and returns the user on success.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if !util.CheckPassword(user.PasswordHash, password) {
		return User{}, ErrNotFound
	}
	return user, nil
}

// GetByID returns a user by ID.
func (s *Service) GetByID(ctx context.Context, userID int64) (User, error) {
	if userID <= 0 {
		return User{}, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, userID)
}

// UpdateBranding persists school name and/or watermark opacity and drops
// the user's cached personalized PDFs.
func (s *Service) UpdateBranding(ctx context.Context, userID int64, update BrandingUpdate) (User, error) {
	if update.SchoolName == nil && update.WatermarkOpacity == nil {
		return User{}, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if update.SchoolName != nil {
		sanitized := util.SanitizeDisplayName(*update.SchoolName)
		update.SchoolName = &sanitized
	}
	if update.WatermarkOpacity != nil {
		opacity := *update.WatermarkOpacity
		if opacity < 0 || opacity > 1 {
			return User{}, fmt.Errorf("%w: watermark opacity must be within [0, 1]", ErrInvalidInput)
		}
	}

	if err := s.Repo.UpdateBranding(ctx, userID, update); err != nil {
		return User{}, err
	}
	if s.Invalidator != nil {
		s.Invalidator.InvalidateUser(userID)
	}
	return s.Repo.GetByID(ctx, userID)
}

// SaveLogo validates and stores a PNG or JPEG logo in the uploads root,
// records it on the user and drops the user's cached personalized PDFs.
func (s *Service) SaveLogo(ctx context.Context, userID int64, fileName string, r io.Reader) (User, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxLogoBytes+1))
	if err != nil {
		return User{}, err
	}
	if len(data) == 0 {
		return User{}, fmt.Errorf("%w: empty logo file", ErrInvalidInput)
	}
	if len(data) > maxLogoBytes {
		return User{}, fmt.Errorf("%w: logo exceeds %d bytes", ErrInvalidInput, maxLogoBytes)
	}
	if !isImage(data) {
		return User{}, fmt.Errorf("%w: logo must be a PNG or JPEG image", ErrInvalidInput)
	}

	key, _, _, err := s.Store.Save(ctx, object.DirLogos, fileName, bytes.NewReader(data))
	if err != nil {
		return User{}, err
	}
	if err := s.Repo.UpdateLogo(ctx, userID, "/uploads/"+key); err != nil {
		return User{}, err
	}
	if s.Invalidator != nil {
		s.Invalidator.InvalidateUser(userID)
	}
	return s.Repo.GetByID(ctx, userID)
}

func isImage(data []byte) bool {
	if _, err := png.DecodeConfig(bytes.NewReader(data)); err == nil {
		return true
	}
	if _, err := jpeg.DecodeConfig(bytes.NewReader(data)); err == nil {
		return true
	}
	return false
}
