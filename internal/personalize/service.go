package personalize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"schoolpress-backend/internal/shared/metrics"
	"schoolpress-backend/internal/shared/telemetry"
	"schoolpress-backend/internal/worksheets"
)

// ErrFileMissing reports that the worksheet row exists but its canonical
// file is gone from the uploads store.
var ErrFileMissing = errors.New("worksheet file missing")

// Result is a delivered worksheet payload. Personalized is false when
// the caller received the original bytes via the fallback path.
type Result struct {
	Data         []byte
	Personalized bool
}

type flight struct {
	done chan struct{}
	data []byte
	err  error
}

// Generator renders the personalized copy of a worksheet file.
type Generator interface {
	Personalize(canonicalPath string, branding Branding) ([]byte, error)
}

// Service orchestrates delivery of a personalized worksheet: cache
// lookup, single-flight generation with a deadline, and fallback to the
// original file when generation loses the race or fails.
type Service struct {
	Branding    *BrandingResolver
	Engine      Generator
	Cache       *Cache
	UploadsRoot string
	Timeout     time.Duration

	mu      sync.Mutex
	flights map[Key]*flight
}

// NewService wires the orchestrator. timeoutSeconds <= 0 disables the
// deadline and every request waits for generation to finish.
func NewService(branding *BrandingResolver, engine Generator, cache *Cache, uploadsRoot string, timeoutSeconds int) *Service {
	return &Service{
		Branding:    branding,
		Engine:      engine,
		Cache:       cache,
		UploadsRoot: uploadsRoot,
		Timeout:     time.Duration(timeoutSeconds) * time.Second,
		flights:     make(map[Key]*flight),
	}
}

// Deliver returns the personalized bytes for ws on behalf of userID.
// Access control happens before this call; Deliver only trusts its
// inputs as far as the filesystem lets it.
func (s *Service) Deliver(ctx context.Context, ws worksheets.Worksheet, userID int64) (Result, error) {
	canonical := filepath.Join(s.UploadsRoot, filepath.FromSlash(ws.FileKey))
	info, err := os.Stat(canonical)
	if err != nil || info.IsDir() {
		return Result{}, ErrFileMissing
	}

	metrics.IncPersonalizeRequest()
	started := time.Now()

	if s.Cache.Enabled() {
		if data := s.Cache.Get(ws.ID, userID); data != nil {
			metrics.IncPersonalizeCacheHit()
			metrics.ObservePersonalizeDurationMs(float64(time.Since(started).Milliseconds()))
			return Result{Data: data, Personalized: true}, nil
		}
	}

	f := s.launch(ctx, Key{WorksheetID: ws.ID, UserID: userID}, canonical, userID)

	var deadline <-chan time.Time
	if s.Timeout > 0 {
		timer := time.NewTimer(s.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case <-f.done:
		metrics.ObservePersonalizeDurationMs(float64(time.Since(started).Milliseconds()))
		if f.err != nil {
			telemetry.Warn("personalize.generation_failed", map[string]any{
				"worksheet_id": ws.ID,
				"user_id":      userID,
				"error":        f.err.Error(),
			})
			return s.fallback(canonical)
		}
		return Result{Data: f.data, Personalized: true}, nil
	case <-deadline:
		metrics.ObservePersonalizeDurationMs(float64(time.Since(started).Milliseconds()))
		telemetry.Warn("personalize.timeout", map[string]any{
			"worksheet_id": ws.ID,
			"user_id":      userID,
			"timeout_ms":   s.Timeout.Milliseconds(),
		})
		return s.fallback(canonical)
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// launch starts generation for key or joins the in-flight one. The
// goroutine outlives its callers; a result that lands after the
// generation deadline is discarded rather than cached.
func (s *Service) launch(ctx context.Context, key Key, canonical string, userID int64) *flight {
	s.mu.Lock()
	if f, ok := s.flights[key]; ok {
		s.mu.Unlock()
		return f
	}
	f := &flight{done: make(chan struct{})}
	s.flights[key] = f
	s.mu.Unlock()

	// The branding lookup counts against the generation deadline too, so
	// it runs inside the raced goroutine. The goroutine outlives its
	// callers, hence the detached context.
	lookupCtx := context.WithoutCancel(ctx)

	go func() {
		start := time.Now()
		branding := s.Branding.Resolve(lookupCtx, userID)
		f.data, f.err = s.Engine.Personalize(canonical, branding)
		inTime := s.Timeout <= 0 || time.Since(start) <= s.Timeout
		if f.err == nil && inTime && s.Cache.Enabled() {
			s.Cache.Set(key.WorksheetID, key.UserID, f.data)
		}
		s.mu.Lock()
		delete(s.flights, key)
		s.mu.Unlock()
		close(f.done)
	}()
	return f
}

// fallback serves the untouched original file.
func (s *Service) fallback(canonical string) (Result, error) {
	data, err := os.ReadFile(canonical)
	if err != nil {
		return Result{}, fmt.Errorf("read original: %w", err)
	}
	metrics.IncPersonalizeFallback()
	return Result{Data: data, Personalized: false}, nil
}
