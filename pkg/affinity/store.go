// Package affinity persists the bird's single intimacy score.
//
// The score lives behind an ordered list of backends. Reads take the first
// backend that yields a usable number, writes land in the first backend that
// accepts them. Backend failures are swallowed here and never reach callers.
package affinity

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const (
	// Key identifies the score in every backend.
	Key = "crappyBirdIntimacy"

	Min = 0
	Max = 1000
)

// Clamp rounds half up and bounds v to [Min, Max]. NaN counts as Min.
func Clamp(v float64) int {
	if math.IsNaN(v) {
		return Min
	}
	r := math.Floor(v + 0.5)
	if r < Min {
		return Min
	}
	if r > Max {
		return Max
	}
	return int(r)
}

// Store reads and writes the score through its backends in priority order.
type Store struct {
	backends []Backend
	logger   *zap.Logger
	mu       sync.Mutex
}

// NewStore builds a store. backends[0] is the primary mechanism; the rest
// are fallbacks. A store without backends reads 0 and ignores writes.
func NewStore(logger *zap.Logger, backends ...Backend) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	kept := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if b != nil {
			kept = append(kept, b)
		}
	}
	return &Store{backends: kept, logger: logger}
}

// Backends returns the names of the configured backends, primary first.
func (s *Store) Backends() []string {
	names := make([]string, len(s.backends))
	for i, b := range s.backends {
		names[i] = b.Name()
	}
	return names
}

// Get returns the current clamped score, or Min when nothing usable is stored.
func (s *Store) Get(ctx context.Context) int {
	for _, b := range s.backends {
		raw, err := b.Load(ctx)
		if err != nil {
			s.logger.Debug("affinity backend unavailable for read",
				zap.String("backend", b.Name()), zap.Error(err))
			continue
		}
		v, ok := parseScore(raw)
		if !ok {
			s.logger.Debug("affinity backend holds a corrupt value",
				zap.String("backend", b.Name()), zap.String("raw", raw))
			continue
		}
		return Clamp(v)
	}
	return Min
}

// Set clamps v and writes it to the first backend that accepts it.
func (s *Store) Set(ctx context.Context, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(ctx, Clamp(v))
}

// ChangeBy adds delta to a fresh read of the score and returns the stored result.
func (s *Store) ChangeBy(ctx context.Context, delta float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := Clamp(float64(s.Get(ctx)) + delta)
	s.set(ctx, next)
	return next
}

// Reset puts the score back to Min.
func (s *Store) Reset(ctx context.Context) {
	s.Set(ctx, Min)
}

func (s *Store) set(ctx context.Context, clamped int) {
	value := strconv.Itoa(clamped)
	for _, b := range s.backends {
		if err := b.Save(ctx, value); err != nil {
			s.logger.Debug("affinity backend unavailable for write",
				zap.String("backend", b.Name()), zap.Error(err))
			continue
		}
		return
	}
}

func parseScore(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
