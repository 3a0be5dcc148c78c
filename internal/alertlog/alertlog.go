// Package alertlog surfaces Warn/Error log records as user-visible alerts.
//
// Hook-install and native-call failures are safety-relevant in this
// application (a failed keyboard hook silently weakens the Escape unlock
// guarantee), so they must reach the user, not just the log file. The Handler
// tees qualifying slog records into a bounded ring buffer and notifies a
// callback so the frontend can render a non-blocking warning.
package alertlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"time"
)

// Alert is one captured log record.
type Alert struct {
	Seq     uint64    `json:"seq"`
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// Notifier is invoked (outside the ring lock) after each captured alert.
// May be nil.
type Notifier func(Alert)

// Ring is a fixed-capacity alert buffer. Oldest entries are dropped first.
type Ring struct {
	mu      sync.Mutex
	entries []Alert
	cap     int
	seq     uint64
}

// NewRing creates a ring holding at most capacity alerts.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 64
	}
	return &Ring{cap: capacity}
}

func (r *Ring) add(ts time.Time, level slog.Level, msg string) Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	alert := Alert{
		Seq:     r.seq,
		Time:    ts,
		Level:   level.String(),
		Message: msg,
	}
	r.entries = append(r.entries, alert)
	if len(r.entries) > r.cap {
		r.entries = r.entries[len(r.entries)-r.cap:]
	}
	return alert
}

// Snapshot returns a copy of the buffered alerts, oldest first.
func (r *Ring) Snapshot() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Alert, len(r.entries))
	copy(out, r.entries)
	return out
}

// Handler wraps a base slog.Handler and tees records at or above minLevel
// into a Ring. All records reach the base handler regardless of level; only
// the capture is gated.
type Handler struct {
	base     slog.Handler
	ring     *Ring
	notify   Notifier
	minLevel slog.Level
}

// NewHandler creates a Handler teeing into ring. A nil ring disables capture.
func NewHandler(base slog.Handler, ring *Ring, minLevel slog.Level, notify Notifier) *Handler {
	return &Handler{base: base, ring: ring, notify: notify, minLevel: minLevel}
}

// Enabled defers to the base handler; the capture threshold does not affect
// log visibility.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// Handle forwards the record to the base handler, then captures it when the
// level meets the threshold. The notifier runs outside the ring lock and is
// panic-isolated: a broken frontend bridge must not take logging down with it.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	err := h.base.Handle(ctx, record)

	if h.ring != nil && record.Level >= h.minLevel {
		alert := h.ring.add(record.Time, record.Level, record.Message)
		if h.notify != nil {
			func() {
				defer func() {
					if r := recover(); r != nil {
						// stderr, not slog: a panicking notifier inside the
						// handler would otherwise recurse.
						fmt.Fprintf(os.Stderr, "[alertlog] notifier panicked: %v\n%s\n", r, debug.Stack())
					}
				}()
				h.notify(alert)
			}()
		}
	}

	return err
}

// WithAttrs returns a Handler whose base carries the given attributes.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return &Handler{base: h.base.WithAttrs(attrs), ring: h.ring, notify: h.notify, minLevel: h.minLevel}
}

// WithGroup returns a Handler whose base is wrapped with the group name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &Handler{base: h.base.WithGroup(name), ring: h.ring, notify: h.notify, minLevel: h.minLevel}
}
