package onboarding

import (
	"context"
	"errors"
	"sync"

	"github.com/goodtune/toolquota/internal/metrics"
	"github.com/goodtune/toolquota/internal/storage"
	"github.com/rs/zerolog"
)

const (
	// Key is the storage key marking onboarding as finished.
	Key = "onboarding_completed"

	// CompletedValue is written to Key on completion. Any stored value,
	// including this one, suppresses onboarding.
	CompletedValue = "true"
)

// Flow tracks one session's view of the first-run onboarding.
//
// Only completion is persisted. The step cursor lives in memory and starts
// at zero for every new Flow.
type Flow struct {
	store  storage.Store
	logger zerolog.Logger

	mu   sync.Mutex
	show bool
	step int
}

// New decides once whether onboarding should be shown: it is shown iff the
// store holds no value at Key. If storage cannot be read, onboarding is shown.
func New(ctx context.Context, store storage.Store, logger zerolog.Logger) *Flow {
	f := &Flow{
		store:  store,
		logger: logger.With().Str("component", "onboarding").Logger(),
	}

	_, err := store.Get(ctx, Key)
	switch {
	case err == nil:
		f.show = false
	case errors.Is(err, storage.ErrNotFound):
		f.show = true
	default:
		f.logger.Warn().Err(err).Msg("Failed to read onboarding state, assuming not completed")
		metrics.StorageFailures.WithLabelValues(metrics.OpRead).Inc()
		f.show = true
	}

	return f
}

// ShouldShow reports whether the onboarding flow should be displayed.
func (f *Flow) ShouldShow() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.show
}

// Step returns the current step index.
func (f *Flow) Step() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Next advances one step. The caller clamps against its own step count.
func (f *Flow) Next() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.step++
}

// Previous goes back one step, stopping at zero.
func (f *Flow) Previous() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step > 0 {
		f.step--
	}
}

// Skip dismisses onboarding permanently. It is equivalent to Complete.
func (f *Flow) Skip(ctx context.Context) {
	f.markDone(ctx, "skipped")
}

// Complete marks onboarding finished.
func (f *Flow) Complete(ctx context.Context) {
	f.markDone(ctx, "completed")
}

// markDone hides onboarding even if the marker cannot be written; a later
// session will then offer it again.
func (f *Flow) markDone(ctx context.Context, how string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.store.Set(ctx, Key, CompletedValue); err != nil {
		f.logger.Warn().
			Err(err).
			Str("outcome", how).
			Msg("Failed to persist onboarding completion, hiding for this session only")
		metrics.StorageFailures.WithLabelValues(metrics.OpWrite).Inc()
	} else {
		f.logger.Debug().Str("outcome", how).Int("step", f.step).Msg("Onboarding finished")
	}

	f.show = false
	metrics.OnboardingCompleted.Inc()
}
