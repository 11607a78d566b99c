// Package stability guards pipeline stages against panics and keeps the
// per-operation counters reported by the health endpoints.
package stability

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	lerrors "github.com/a3tai/mcp-shiplabel/internal/pdf/errors"
)

// Config configures a Manager.
type Config struct {
	// MaxPanics is the number of recent panics kept; reaching it marks the
	// process unhealthy.
	MaxPanics int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{MaxPanics: 10}
}

// PanicRecord stores information about a recovered panic.
type PanicRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	Operation  string    `json:"operation"`
	Message    string    `json:"message"`
	StackTrace string    `json:"stack_trace"`
}

// OperationStats counts the outcomes of one guarded operation.
type OperationStats struct {
	Calls     int64         `json:"calls"`
	Failures  int64         `json:"failures"`
	Panics    int64         `json:"panics"`
	TotalTime time.Duration `json:"total_time"`
}

// MemoryStats is a snapshot of the Go heap.
type MemoryStats struct {
	Alloc uint64 `json:"alloc"`
	Sys   uint64 `json:"sys"`
	NumGC uint32 `json:"num_gc"`
}

// Health is the stability report.
type Health struct {
	Healthy    bool                      `json:"healthy"`
	Uptime     string                    `json:"uptime"`
	PanicCount int                       `json:"panic_count"`
	Operations map[string]OperationStats `json:"operations"`
	Memory     MemoryStats               `json:"memory"`
}

// Manager recovers panics raised inside guarded operations.
type Manager struct {
	config  Config
	log     *slog.Logger
	started time.Time

	mu     sync.Mutex
	panics []PanicRecord
	ops    map[string]*OperationStats
}

// NewManager creates a Manager. A nil logger uses slog.Default().
func NewManager(config Config, log *slog.Logger) *Manager {
	if config.MaxPanics <= 0 {
		config.MaxPanics = DefaultConfig().MaxPanics
	}
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		config:  config,
		log:     log.With("component", "stability"),
		started: time.Now(),
		ops:     make(map[string]*OperationStats),
	}
}

// Guard runs fn, converting a panic into a *LabelError of errType. The
// operation's counters are updated either way.
func (m *Manager) Guard(ctx context.Context, operation string, errType lerrors.ErrorType, fn func(context.Context) error) (err error) {
	start := time.Now()
	panicked := false

	defer func() {
		if r := recover(); r != nil {
			panicked = true
			stack := string(debug.Stack())
			m.recordPanic(operation, fmt.Sprint(r), stack)
			m.log.Error("panic recovered", "operation", operation, "panic", r)
			err = lerrors.New(errType, fmt.Sprintf("%s panicked: %v", operation, r)).WithContext(operation)
		}
		m.record(operation, time.Since(start), err != nil, panicked)
	}()

	return fn(ctx)
}

func (m *Manager) record(operation string, d time.Duration, failed, panicked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.ops[operation]
	if !ok {
		st = &OperationStats{}
		m.ops[operation] = st
	}
	st.Calls++
	st.TotalTime += d
	if failed {
		st.Failures++
	}
	if panicked {
		st.Panics++
	}
}

func (m *Manager) recordPanic(operation, message, stack string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.panics = append(m.panics, PanicRecord{
		Timestamp:  time.Now(),
		Operation:  operation,
		Message:    message,
		StackTrace: stack,
	})
	// keep only the most recent panics
	if len(m.panics) > m.config.MaxPanics {
		m.panics = m.panics[len(m.panics)-m.config.MaxPanics:]
	}
}

// Panics returns the recent panic records, oldest first.
func (m *Manager) Panics() []PanicRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]PanicRecord, len(m.panics))
	copy(out, m.panics)
	return out
}

// Operations returns the names of the operations seen so far, sorted.
func (m *Manager) Operations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.ops))
	for name := range m.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Health returns the current stability report.
func (m *Manager) Health() Health {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	m.mu.Lock()
	defer m.mu.Unlock()

	ops := make(map[string]OperationStats, len(m.ops))
	for name, st := range m.ops {
		ops[name] = *st
	}
	return Health{
		Healthy:    len(m.panics) < m.config.MaxPanics,
		Uptime:     time.Since(m.started).Round(time.Second).String(),
		PanicCount: len(m.panics),
		Operations: ops,
		Memory:     MemoryStats{Alloc: mem.Alloc, Sys: mem.Sys, NumGC: mem.NumGC},
	}
}

// Reset clears the recorded panics and counters.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panics = nil
	m.ops = make(map[string]*OperationStats)
}
