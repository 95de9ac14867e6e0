package pipeline

import (
	"log/slog"
	"sync"
	"time"
)

// ProgressCallback defines the interface for progress reporting during batch processing.
type ProgressCallback interface {
	// OnStart is called when processing begins with the total number of items.
	OnStart(total int)

	// OnProgress is called after each finished document.
	OnProgress(current, total int)

	// OnComplete is called when processing is finished.
	OnComplete()

	// OnError is called when a document fails or records stage errors.
	OnError(index int, err error)
}

// NoOpProgressCallback implements ProgressCallback but does nothing.
type NoOpProgressCallback struct{}

func (NoOpProgressCallback) OnStart(int)         {}
func (NoOpProgressCallback) OnProgress(int, int) {}
func (NoOpProgressCallback) OnComplete()         {}
func (NoOpProgressCallback) OnError(int, error)  {}

// LogProgressCallback reports batch progress through slog, at most once per interval.
type LogProgressCallback struct {
	mu         sync.Mutex
	interval   time.Duration
	start      time.Time
	lastUpdate time.Time
	total      int
	current    int
	failures   int
}

// NewLogProgressCallback creates a reporter. A zero interval logs every document.
func NewLogProgressCallback(interval time.Duration) *LogProgressCallback {
	return &LogProgressCallback{interval: interval}
}

func (l *LogProgressCallback) OnStart(total int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.start = time.Now()
	l.total = total
	slog.Info("Batch started", "documents", total)
}

func (l *LogProgressCallback) OnProgress(current, total int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = current
	now := time.Now()
	if current < total && now.Sub(l.lastUpdate) < l.interval {
		return
	}
	l.lastUpdate = now
	slog.Info("Batch progress", "done", current, "total", total)
}

func (l *LogProgressCallback) OnError(index int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures++
	slog.Warn("Document had errors", "index", index, "error", err)
}

func (l *LogProgressCallback) OnComplete() {
	l.mu.Lock()
	defer l.mu.Unlock()
	slog.Info("Batch complete",
		"done", l.current,
		"total", l.total,
		"with_errors", l.failures,
		"elapsed", time.Since(l.start).Round(time.Millisecond))
}

// Failures returns how many documents reported errors.
func (l *LogProgressCallback) Failures() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failures
}
