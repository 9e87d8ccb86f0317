package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"pathtutor/internal/logging"
)

type contextKey int

const (
	trackerKey contextKey = iota
	turnKey
)

type turnInfo struct {
	sessionID string
	category  string
	operation string
}

// Tracker manages token usage recording and persistence.
type Tracker struct {
	mu       sync.Mutex
	data     UsageData
	filePath string
	dirty    bool
}

// NewTracker creates a tracker persisting to filePath. Existing data is
// loaded; a corrupt file is logged and replaced on the next Save.
func NewTracker(filePath string) (*Tracker, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create usage dir: %w", err)
	}

	t := &Tracker{
		filePath: filePath,
		data: UsageData{
			Version:   "1.0",
			Aggregate: newAggregate(),
		},
	}

	if err := t.Load(); err != nil {
		logging.Get(logging.CategoryUsage).Warn("Ignoring unreadable usage file %s: %v", filePath, err)
	}

	return t, nil
}

// Load reads the usage data from disk.
func (t *Tracker) Load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := os.ReadFile(t.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	loaded := UsageData{Aggregate: newAggregate()}
	if err := json.Unmarshal(data, &loaded); err != nil {
		return err
	}

	// Ensure maps are initialized if file was empty/partial
	fresh := newAggregate()
	for _, pair := range []struct {
		dst *map[string]TokenCounts
		src map[string]TokenCounts
	}{
		{&loaded.Aggregate.ByProvider, fresh.ByProvider},
		{&loaded.Aggregate.ByModel, fresh.ByModel},
		{&loaded.Aggregate.ByCategory, fresh.ByCategory},
		{&loaded.Aggregate.ByOperation, fresh.ByOperation},
		{&loaded.Aggregate.BySession, fresh.BySession},
	} {
		if *pair.dst == nil {
			*pair.dst = pair.src
		}
	}
	t.data = loaded

	return nil
}

// Save writes the usage data to disk if anything changed.
func (t *Tracker) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.dirty {
		return nil
	}
	data, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(t.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write usage: %w", err)
	}
	t.dirty = false
	return nil
}

// Track records a completion call. Session, category and operation come
// from WithTurn on ctx.
func (t *Tracker) Track(ctx context.Context, model, provider string, input, output int) {
	info, _ := ctx.Value(turnKey).(turnInfo)
	if info.sessionID == "" {
		info.sessionID = "unknown"
	}
	if info.operation == "" {
		info.operation = "unknown"
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	agg := &t.data.Aggregate
	agg.Total.Add(input, output)
	agg.Calls++
	addToMap(agg.ByProvider, provider, input, output)
	addToMap(agg.ByModel, model, input, output)
	if info.category != "" {
		addToMap(agg.ByCategory, info.category, input, output)
	}
	addToMap(agg.ByOperation, info.operation, input, output)
	addToMap(agg.BySession, info.sessionID, input, output)
	t.dirty = true

	logging.UsageDebug("Tracked %d/%d tokens: provider=%s model=%s op=%s", input, output, provider, model, info.operation)
}

// Stats returns a copy of the aggregated stats.
func (t *Tracker) Stats() AggregatedStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.data.Aggregate
	stats.ByProvider = copyTokenCountsMap(stats.ByProvider)
	stats.ByModel = copyTokenCountsMap(stats.ByModel)
	stats.ByCategory = copyTokenCountsMap(stats.ByCategory)
	stats.ByOperation = copyTokenCountsMap(stats.ByOperation)
	stats.BySession = copyTokenCountsMap(stats.BySession)
	return stats
}

func copyTokenCountsMap(src map[string]TokenCounts) map[string]TokenCounts {
	if src == nil {
		return nil
	}
	dst := make(map[string]TokenCounts, len(src))
	for key, counts := range src {
		dst[key] = counts
	}
	return dst
}

func addToMap(m map[string]TokenCounts, key string, input, output int) {
	entry := m[key]
	entry.Add(input, output)
	m[key] = entry
}

// Context Helpers

// NewContext returns a new context carrying the tracker.
func NewContext(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey, t)
}

// FromContext retrieves the tracker from the context.
func FromContext(ctx context.Context) *Tracker {
	t, _ := ctx.Value(trackerKey).(*Tracker)
	return t
}

// WithTurn attributes completion calls made with ctx to a session,
// specialist category and operation.
func WithTurn(ctx context.Context, sessionID, category, operation string) context.Context {
	return context.WithValue(ctx, turnKey, turnInfo{
		sessionID: sessionID,
		category:  category,
		operation: operation,
	})
}

// Record is a convenience for provider clients: it tracks the call on the
// tracker carried by ctx, if any.
func Record(ctx context.Context, model, provider string, input, output int) {
	if t := FromContext(ctx); t != nil {
		t.Track(ctx, model, provider, input, output)
	}
}

// TurnFromContext returns the attribution set by WithTurn.
func TurnFromContext(ctx context.Context) (sessionID, category, operation string) {
	info, _ := ctx.Value(turnKey).(turnInfo)
	return info.sessionID, info.category, info.operation
}
