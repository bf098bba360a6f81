package worksheets

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errNotFound{}
	ErrInvalidInput = errors.New("invalid input")
)

type errNotFound struct{}

func (errNotFound) Error() string { return "worksheet not found" }

type Repo interface {
	Create(ctx context.Context, ws Worksheet) (int64, error)
	GetByID(ctx context.Context, worksheetID int64) (Worksheet, error)
	List(ctx context.Context, limit, offset int) ([]Worksheet, error)
	Delete(ctx context.Context, worksheetID int64) error
}
