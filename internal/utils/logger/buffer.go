// internal/utils/logger/buffer.go
package logger

import (
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// Entry is a captured log line.
type Entry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Logger    string                 `json:"logger,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Buffer keeps the most recent log entries in a fixed-size ring.
type Buffer struct {
	mu      sync.Mutex
	ring    []Entry
	next    int
	wrapped bool
	total   uint64
}

// NewBuffer creates a ring of size entries. size must be positive.
func NewBuffer(size int) *Buffer {
	return &Buffer{ring: make([]Entry, size)}
}

func (b *Buffer) add(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ring[b.next] = e
	b.next = (b.next + 1) % len(b.ring)
	if b.next == 0 {
		b.wrapped = true
	}
	b.total++
}

// Entries returns up to limit of the newest entries, oldest first.
// limit <= 0 returns everything held.
func (b *Buffer) Entries(limit int) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	var all []Entry
	if b.wrapped {
		all = append(all, b.ring[b.next:]...)
	}
	all = append(all, b.ring[:b.next]...)

	if limit > 0 && limit < len(all) {
		all = all[len(all)-limit:]
	}
	return all
}

// Total counts every entry ever written, including overwritten ones.
func (b *Buffer) Total() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

// Core returns a zapcore.Core writing into the buffer.
func (b *Buffer) Core(enab zapcore.LevelEnabler) zapcore.Core {
	return &bufferCore{LevelEnabler: enab, buf: b}
}

type bufferCore struct {
	zapcore.LevelEnabler
	buf    *Buffer
	fields []zapcore.Field
}

func (c *bufferCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &bufferCore{LevelEnabler: c.LevelEnabler, buf: c.buf, fields: merged}
}

func (c *bufferCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *bufferCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	e := Entry{
		Timestamp: ent.Time,
		Level:     ent.Level.CapitalString(),
		Logger:    ent.LoggerName,
		Message:   ent.Message,
	}
	if len(enc.Fields) > 0 {
		e.Fields = enc.Fields
	}
	c.buf.add(e)
	return nil
}

func (c *bufferCore) Sync() error { return nil }
