package logging

import (
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// Entry is one captured log line, shaped for the debug panel.
type Entry struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// Ring is a fixed-capacity buffer of recent log entries. Writers overwrite
// the oldest entry once full.
type Ring struct {
	mu   sync.RWMutex
	buf  []Entry
	next int
	size int
}

func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]Entry, capacity)}
}

func (r *Ring) Append(e Entry) {
	r.mu.Lock()
	r.buf[r.next] = e
	r.next = (r.next + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
	}
	r.mu.Unlock()
}

// Recent returns up to limit entries, oldest first. limit <= 0 returns
// everything buffered.
func (r *Ring) Recent(limit int) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > r.size {
		limit = r.size
	}
	out := make([]Entry, 0, limit)
	start := r.next - limit
	if start < 0 {
		start += len(r.buf)
	}
	for i := 0; i < limit; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}

func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// ringCore is a zap core that mirrors entries into a Ring. It is added with
// zapcore.NewTee next to the primary output core.
type ringCore struct {
	zapcore.LevelEnabler
	ring   *Ring
	fields []zapcore.Field
}

func newRingCore(ring *Ring, level zapcore.LevelEnabler) *ringCore {
	return &ringCore{LevelEnabler: level, ring: ring}
}

func (c *ringCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field(nil), c.fields...), fields...)
	return &clone
}

func (c *ringCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *ringCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	e := Entry{
		Time:    entry.Time,
		Level:   entry.Level.String(),
		Message: entry.Message,
	}
	if len(enc.Fields) > 0 {
		e.Fields = enc.Fields
	}
	c.ring.Append(e)
	return nil
}

func (c *ringCore) Sync() error { return nil }
