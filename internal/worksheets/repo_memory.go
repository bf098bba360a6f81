package worksheets

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]Worksheet
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		nextID: 1,
		data:   make(map[int64]Worksheet),
	}
}

// Create stores a new worksheet and returns its ID.
func (r *MemoryRepo) Create(ctx context.Context, ws Worksheet) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ws.ID = r.nextID
	r.nextID++
	if ws.CreatedAt.IsZero() {
		ws.CreatedAt = time.Now().UTC()
	}
	r.data[ws.ID] = ws
	return ws.ID, nil
}

// GetByID returns a worksheet by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, worksheetID int64) (Worksheet, error) {
	if err := ctx.Err(); err != nil {
		return Worksheet{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ws, ok := r.data[worksheetID]
	if !ok {
		return Worksheet{}, ErrNotFound
	}
	return ws, nil
}

// List returns worksheets, newest first, honoring limit/offset.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Worksheet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	}

	r.mu.RLock()
	out := make([]Worksheet, 0, len(r.data))
	for _, ws := range r.data {
		out = append(out, ws)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset >= len(out) {
		return []Worksheet{}, nil
	}
	end := len(out)
	if offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

// Delete removes a worksheet.
func (r *MemoryRepo) Delete(ctx context.Context, worksheetID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[worksheetID]; !ok {
		return ErrNotFound
	}
	delete(r.data, worksheetID)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
