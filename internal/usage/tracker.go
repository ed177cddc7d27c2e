package usage

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/goodtune/toolquota/internal/clock"
	"github.com/goodtune/toolquota/internal/metrics"
	"github.com/goodtune/toolquota/internal/storage"
	"github.com/rs/zerolog"
)

// DefaultDailyLimit is the number of uses each tool allows per calendar day.
const DefaultDailyLimit = 10

// Config holds tracker configuration
type Config struct {
	DailyLimit int
}

// Tracker enforces the daily use limit for each tool.
//
// Storage failures never reach the caller. A failed read falls back to the
// last state computed today (or a full allowance); a failed write still
// adopts the computed state in memory, so memory may run ahead of storage.
//
// The read-modify-write in RecordUse is serialized within one Tracker only.
// Separate processes sharing a store can lose increments to each other.
type Tracker struct {
	store      storage.Store
	clock      clock.Clock
	dailyLimit int
	logger     zerolog.Logger

	mu   sync.Mutex
	last map[string]lastKnown // key: toolID
}

type lastKnown struct {
	day    string
	status Status
}

// NewTracker creates a new usage tracker. A nil clock uses the system clock.
func NewTracker(store storage.Store, config Config, clk clock.Clock, logger zerolog.Logger) *Tracker {
	if config.DailyLimit <= 0 {
		config.DailyLimit = DefaultDailyLimit
	}
	if clk == nil {
		clk = clock.Real{}
	}

	return &Tracker{
		store:      store,
		clock:      clk,
		dailyLimit: config.DailyLimit,
		logger:     logger.With().Str("component", "usage-tracker").Logger(),
		last:       make(map[string]lastKnown),
	}
}

// DailyLimit returns the per-tool daily cap.
func (t *Tracker) DailyLimit() int {
	return t.dailyLimit
}

// CheckStatus reports how many uses of toolID remain today. A missing or
// stale record is replaced by a fresh zero-count record for today.
func (t *Tracker) CheckStatus(ctx context.Context, toolID string) Status {
	now := t.clock.Now()
	today := DayString(now)
	nextReset := NextReset(now)

	if !validToolID(toolID) {
		t.logger.Warn().Str("tool_id", toolID).Msg("Status check with invalid tool ID, reporting full allowance")
		return t.derive(toolID, 0, nextReset)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rec, replace, err := t.load(ctx, toolID, today)
	if err != nil {
		t.logger.Warn().
			Err(err).
			Str("tool_id", toolID).
			Msg("Failed to read usage record, keeping last known state")
		metrics.StorageFailures.WithLabelValues(metrics.OpRead).Inc()
		return t.fallback(toolID, today, nextReset)
	}

	if replace {
		t.save(ctx, toolID, rec)
	}

	return t.adopt(toolID, today, rec, nextReset)
}

// RecordUse consumes one use of toolID and returns the resulting status.
// Every call counts; callers invoke it once per actual tool use.
func (t *Tracker) RecordUse(ctx context.Context, toolID string) Status {
	now := t.clock.Now()
	today := DayString(now)
	nextReset := NextReset(now)

	if !validToolID(toolID) {
		t.logger.Warn().Str("tool_id", toolID).Msg("Use recorded with invalid tool ID, ignoring")
		return t.derive(toolID, 0, nextReset)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rec, _, err := t.load(ctx, toolID, today)
	if err != nil {
		t.logger.Warn().
			Err(err).
			Str("tool_id", toolID).
			Msg("Failed to read usage record, counting from last known state")
		metrics.StorageFailures.WithLabelValues(metrics.OpRead).Inc()

		rec = Record{ResetDate: today}
		if prev, ok := t.last[toolID]; ok && prev.day == today {
			rec.Count = prev.status.Count
		}
	}

	rec.Count++
	t.save(ctx, toolID, rec)

	metrics.UsesRecorded.WithLabelValues(toolID).Inc()
	if rec.Count == t.dailyLimit {
		metrics.LimitReached.WithLabelValues(toolID).Inc()
	}

	status := t.adopt(toolID, today, rec, nextReset)

	t.logger.Debug().
		Str("tool_id", toolID).
		Int("count", rec.Count).
		Int("remaining", status.RemainingUses).
		Msg("Tool use recorded")

	return status
}

// Last returns the status most recently computed for toolID without touching
// storage. The second result is false if nothing has been computed yet.
func (t *Tracker) Last(toolID string) (Status, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.last[toolID]
	return prev.status, ok
}

// load reads the record for toolID. replace reports that the stored value was
// missing, corrupt or from a past day and rec is a fresh record for today.
// Only read failures are returned as errors. Must be called with lock held.
func (t *Tracker) load(ctx context.Context, toolID, today string) (rec Record, replace bool, err error) {
	fresh := Record{Count: 0, ResetDate: today}

	value, err := t.store.Get(ctx, StorageKey(toolID))
	if errors.Is(err, storage.ErrNotFound) {
		t.logger.Debug().Str("tool_id", toolID).Msg("No usage record, starting fresh")
		return fresh, true, nil
	}
	if err != nil {
		return Record{}, false, err
	}

	rec, err = decodeRecord(value)
	if err != nil {
		t.logger.Warn().
			Err(err).
			Str("tool_id", toolID).
			Msg("Corrupt usage record, replacing with fresh record")
		metrics.StorageFailures.WithLabelValues(metrics.OpDecode).Inc()
		return fresh, true, nil
	}

	if rec.ResetDate != today {
		t.logger.Debug().
			Str("tool_id", toolID).
			Str("record_date", rec.ResetDate).
			Str("today", today).
			Int("stale_count", rec.Count).
			Msg("Usage record is from a past day, resetting")
		metrics.DayRollovers.WithLabelValues(toolID).Inc()
		return fresh, true, nil
	}

	return rec, false, nil
}

// save persists rec. Failures are logged and otherwise ignored.
func (t *Tracker) save(ctx context.Context, toolID string, rec Record) {
	value, err := encodeRecord(rec)
	if err == nil {
		err = t.store.Set(ctx, StorageKey(toolID), value)
	}
	if err != nil {
		t.logger.Warn().
			Err(err).
			Str("tool_id", toolID).
			Int("count", rec.Count).
			Msg("Failed to persist usage record, in-memory state now ahead of storage")
		metrics.StorageFailures.WithLabelValues(metrics.OpWrite).Inc()
	}
}

// adopt makes rec the last known state for toolID. Must be called with lock held.
func (t *Tracker) adopt(toolID, today string, rec Record, nextReset time.Time) Status {
	status := t.derive(toolID, rec.Count, nextReset)
	t.last[toolID] = lastKnown{day: today, status: status}
	metrics.RemainingUses.WithLabelValues(toolID).Set(float64(status.RemainingUses))
	return status
}

// fallback is the status reported when storage cannot be read: the state
// last computed today, or a full allowance. Must be called with lock held.
func (t *Tracker) fallback(toolID, today string, nextReset time.Time) Status {
	if prev, ok := t.last[toolID]; ok && prev.day == today {
		status := prev.status
		status.NextReset = nextReset
		return status
	}
	return t.derive(toolID, 0, nextReset)
}

// validToolID rejects IDs that cannot be used as a metric label.
func validToolID(toolID string) bool {
	return toolID != "" && utf8.ValidString(toolID)
}

func (t *Tracker) derive(toolID string, count int, nextReset time.Time) Status {
	remaining := t.dailyLimit - count
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		ToolID:         toolID,
		Count:          count,
		RemainingUses:  remaining,
		IsLimitReached: remaining <= 0,
		NextReset:      nextReset,
	}
}
