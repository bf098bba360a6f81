package subjects

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type approvalKey struct {
	userID         int64
	subjectTitleID int64
}

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu        sync.RWMutex
	nextID    int64
	titles    map[int64]SubjectTitle
	approvals map[approvalKey]bool
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		nextID:    1,
		titles:    make(map[int64]SubjectTitle),
		approvals: make(map[approvalKey]bool),
	}
}

// CreateTitle stores a subject title, reusing an existing one by name.
func (r *MemoryRepo) CreateTitle(ctx context.Context, name string) (SubjectTitle, error) {
	if err := ctx.Err(); err != nil {
		return SubjectTitle{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, title := range r.titles {
		if strings.EqualFold(title.Name, name) {
			return title, nil
		}
	}
	title := SubjectTitle{ID: r.nextID, Name: name, CreatedAt: time.Now().UTC()}
	r.nextID++
	r.titles[title.ID] = title
	return title, nil
}

// ListTitles returns all subject titles ordered by name.
func (r *MemoryRepo) ListTitles(ctx context.Context) ([]SubjectTitle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SubjectTitle, 0, len(r.titles))
	for _, title := range r.titles {
		out = append(out, title)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Approve records an approved linkage.
func (r *MemoryRepo) Approve(ctx context.Context, userID, subjectTitleID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.titles[subjectTitleID]; !ok {
		return ErrNotFound
	}
	r.approvals[approvalKey{userID, subjectTitleID}] = true
	return nil
}

// IsApproved reports whether the user holds an approved linkage.
func (r *MemoryRepo) IsApproved(ctx context.Context, userID, subjectTitleID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.approvals[approvalKey{userID, subjectTitleID}], nil
}

var _ Repo = (*MemoryRepo)(nil)
