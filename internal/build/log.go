package build

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	btclogv1 "github.com/btcsuite/btclog"
	"github.com/btcsuite/btclog/v2"
)

// DefaultLogLevel is the console log level used when none is configured.
const DefaultLogLevel = "info"

// LogConfig configures the process-wide log streams.
type LogConfig struct {
	// Console receives human-oriented output. Hooks write to stderr so
	// the log does not interleave with git's own stdout.
	Console io.Writer

	// Level is the console log level (trace, debug, info, warn, error,
	// critical, off).
	Level string

	// Rotator configures the on-disk log. A nil Rotator or an empty
	// LogDir disables file logging.
	Rotator *LogRotatorConfig
}

// LogManager owns the console and file handlers and hands out subsystem
// loggers that write to both.
type LogManager struct {
	console btclog.Handler
	file    btclog.Handler

	consoleLevel btclogv1.Level

	rotator *RotatingLogWriter
}

// NewLogManager creates the log streams described by cfg. The file stream,
// when enabled, always records debug output so a blocked push can be
// investigated after the fact.
func NewLogManager(cfg *LogConfig) (*LogManager, error) {
	level, err := ParseLogLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	m := &LogManager{
		console:      btclog.NewDefaultHandler(cfg.Console),
		consoleLevel: level,
	}

	if cfg.Rotator != nil && cfg.Rotator.LogDir != "" {
		m.rotator, err = OpenRotatingLog(cfg.Rotator)
		if err != nil {
			return nil, err
		}
		m.file = btclog.NewDefaultHandler(m.rotator)
	}

	return m, nil
}

// ParseLogLevel maps a level name to its btclog level. The empty string is
// DefaultLogLevel.
func ParseLogLevel(name string) (btclogv1.Level, error) {
	if name == "" {
		name = DefaultLogLevel
	}

	level, ok := btclogv1.LevelFromString(strings.ToLower(name))
	if !ok {
		return 0, fmt.Errorf("invalid log level %q", name)
	}

	return level, nil
}

// SubLogger returns a logger tagged with the given subsystem.
func (m *LogManager) SubLogger(subsystem string) btclog.Logger {
	console := m.console.SubSystem(subsystem)
	console.SetLevel(m.consoleLevel)

	handlers := []btclog.Handler{console}
	if m.file != nil {
		file := m.file.SubSystem(subsystem)
		file.SetLevel(btclogv1.LevelDebug)
		handlers = append(handlers, file)
	}

	return btclog.NewSLogger(&handlerSet{set: handlers})
}

// Close flushes and closes the file stream.
func (m *LogManager) Close() error {
	if m.rotator == nil {
		return nil
	}

	return m.rotator.Close()
}

// handlerSet fans records out to several btclog handlers. Unlike a plain
// tee, each member keeps its own level: a record is delivered to every
// member that has it enabled.
type handlerSet struct {
	set []btclog.Handler
}

// Enabled reports whether any member handles records at the given level.
//
// NOTE: this is part of the slog.Handler interface.
func (h *handlerSet) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.set {
		if handler.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

// Handle dispatches the record to each member that accepts its level.
//
// NOTE: this is part of the slog.Handler interface.
func (h *handlerSet) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.set {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil {
			return err
		}
	}

	return nil
}

// WithAttrs returns a handler whose members carry the extra attributes.
//
// NOTE: this is part of the slog.Handler interface.
func (h *handlerSet) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := &slogSet{set: make([]slog.Handler, len(h.set))}
	for i, handler := range h.set {
		out.set[i] = handler.WithAttrs(attrs)
	}

	return out
}

// WithGroup returns a handler whose members open the named group.
//
// NOTE: this is part of the slog.Handler interface.
func (h *handlerSet) WithGroup(name string) slog.Handler {
	out := &slogSet{set: make([]slog.Handler, len(h.set))}
	for i, handler := range h.set {
		out.set[i] = handler.WithGroup(name)
	}

	return out
}

// SubSystem returns a set whose members are tagged with the subsystem.
//
// NOTE: this is part of the btclog.Handler interface.
func (h *handlerSet) SubSystem(tag string) btclog.Handler {
	out := &handlerSet{set: make([]btclog.Handler, len(h.set))}
	for i, handler := range h.set {
		out.set[i] = handler.SubSystem(tag)
	}

	return out
}

// SetLevel forces every member to the same level.
//
// NOTE: this is part of the btclog.Handler interface.
func (h *handlerSet) SetLevel(level btclogv1.Level) {
	for _, handler := range h.set {
		handler.SetLevel(level)
	}
}

// Level returns the most verbose level among the members.
//
// NOTE: this is part of the btclog.Handler interface.
func (h *handlerSet) Level() btclogv1.Level {
	level := btclogv1.LevelOff
	for _, handler := range h.set {
		if handler.Level() < level {
			level = handler.Level()
		}
	}

	return level
}

// WithPrefix returns a set whose members prefix every message.
//
// NOTE: this is part of the btclog.Handler interface.
func (h *handlerSet) WithPrefix(prefix string) btclog.Handler {
	out := &handlerSet{set: make([]btclog.Handler, len(h.set))}
	for i, handler := range h.set {
		out.set[i] = handler.WithPrefix(prefix)
	}

	return out
}

var _ btclog.Handler = (*handlerSet)(nil)

// slogSet is the plain slog.Handler produced by WithAttrs and WithGroup.
type slogSet struct {
	set []slog.Handler
}

// Enabled reports whether any member handles records at the given level.
//
// NOTE: this is part of the slog.Handler interface.
func (s *slogSet) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range s.set {
		if handler.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

// Handle dispatches the record to each member that accepts its level.
//
// NOTE: this is part of the slog.Handler interface.
func (s *slogSet) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range s.set {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil {
			return err
		}
	}

	return nil
}

// WithAttrs returns a set whose members carry the extra attributes.
//
// NOTE: this is part of the slog.Handler interface.
func (s *slogSet) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := &slogSet{set: make([]slog.Handler, len(s.set))}
	for i, handler := range s.set {
		out.set[i] = handler.WithAttrs(attrs)
	}

	return out
}

// WithGroup returns a set whose members open the named group.
//
// NOTE: this is part of the slog.Handler interface.
func (s *slogSet) WithGroup(name string) slog.Handler {
	out := &slogSet{set: make([]slog.Handler, len(s.set))}
	for i, handler := range s.set {
		out.set[i] = handler.WithGroup(name)
	}

	return out
}

var _ slog.Handler = (*slogSet)(nil)
