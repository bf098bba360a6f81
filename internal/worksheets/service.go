package worksheets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	sharedauth "schoolpress-backend/internal/shared/auth"
	"schoolpress-backend/internal/shared/storage/object"
	"schoolpress-backend/internal/shared/telemetry"
)

const maxWorksheetBytes = 25 << 20 // 25MB

// CacheInvalidator drops cached personalized PDFs for a worksheet after
// its canonical file is deleted.
type CacheInvalidator interface {
	InvalidateWorksheet(worksheetID int64)
}

// ApprovalSource answers whether a user holds an approved subject-title
// linkage; strict-mode access checks consult it.
type ApprovalSource interface {
	IsApproved(ctx context.Context, userID, subjectTitleID int64) (bool, error)
}

// Service contains business logic for worksheets.
type Service struct {
	Repo         Repo
	Store        object.ObjectStore
	Approvals    ApprovalSource
	Invalidator  CacheInvalidator
	StrictAccess bool
}

// Create validates the uploaded PDF, stores it as the canonical file and
// records the worksheet.
func (s *Service) Create(ctx context.Context, createdBy int64, title string, subjectTitleID int64, fileName string, r io.Reader) (Worksheet, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Worksheet{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	data, err := io.ReadAll(io.LimitReader(r, maxWorksheetBytes+1))
	if err != nil {
		return Worksheet{}, err
	}
	if len(data) == 0 {
		return Worksheet{}, fmt.Errorf("%w: empty file", ErrInvalidInput)
	}
	if len(data) > maxWorksheetBytes {
		return Worksheet{}, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, maxWorksheetBytes)
	}

	pageCount, err := validatePDF(data)
	if err != nil {
		return Worksheet{}, fmt.Errorf("%w: not a valid PDF: %v", ErrInvalidInput, err)
	}

	fileKey, _, _, err := s.Store.Save(ctx, object.DirFiles, fileName, bytes.NewReader(data))
	if err != nil {
		return Worksheet{}, err
	}

	ws := Worksheet{
		Title:          title,
		SubjectTitleID: subjectTitleID,
		FileKey:        fileKey,
		PageCount:      pageCount,
		HasText:        sniffText(data),
		CreatedBy:      createdBy,
	}
	id, err := s.Repo.Create(ctx, ws)
	if err != nil {
		return Worksheet{}, err
	}
	return s.Repo.GetByID(ctx, id)
}

// Get returns a worksheet by ID.
func (s *Service) Get(ctx context.Context, worksheetID int64) (Worksheet, error) {
	if worksheetID <= 0 {
		return Worksheet{}, fmt.Errorf("%w: worksheet id required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, worksheetID)
}

// List returns worksheets, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Worksheet, error) {
	return s.Repo.List(ctx, limit, offset)
}

// Delete removes the worksheet record and its canonical file, then drops
// any cached personalized copies.
func (s *Service) Delete(ctx context.Context, worksheetID int64) error {
	ws, err := s.Repo.GetByID(ctx, worksheetID)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, worksheetID); err != nil {
		return err
	}
	if err := s.Store.Remove(ctx, ws.FileKey); err != nil {
		telemetry.Warn("worksheet.file_remove_failed", map[string]any{
			"worksheet_id": worksheetID,
			"file_key":     ws.FileKey,
			"error":        err.Error(),
		})
	}
	if s.Invalidator != nil {
		s.Invalidator.InvalidateWorksheet(worksheetID)
	}
	return nil
}

// CanAccess applies the access policy: any authenticated user by default;
// in strict mode non-admins need an approved subject-title linkage.
func (s *Service) CanAccess(ctx context.Context, userID int64, role string, ws Worksheet) (bool, error) {
	if userID <= 0 {
		return false, nil
	}
	if !s.StrictAccess || role == sharedauth.RoleAdmin {
		return true, nil
	}
	if ws.SubjectTitleID == 0 || s.Approvals == nil {
		return false, nil
	}
	return s.Approvals.IsApproved(ctx, userID, ws.SubjectTitleID)
}

// validatePDF loads the payload with pdfcpu and returns the page count.
func validatePDF(data []byte) (int, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), nil)
	if err != nil {
		return 0, err
	}
	return ctx.PageCount, nil
}

// sniffText reports whether the PDF carries extractable text.
func sniffText(data []byte) bool {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	textReader, err := reader.GetPlainText()
	if err != nil {
		return false
	}
	buf := make([]byte, 512)
	n, _ := textReader.Read(buf)
	return len(strings.TrimSpace(string(buf[:n]))) > 0
}
