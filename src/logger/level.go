// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logger

import (
	"fmt"
	"strings"
)

// Level is the severity of a log entry.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	// LevelSilent disables every entry when used as a minimum level.
	LevelSilent
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelSilent:
		return "silent"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel converts a configuration string into a Level.
// It accepts "debug", "info", "warn"/"warning", "error" and "silent", case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "silent", "off":
		return LevelSilent, nil
	}
	return LevelInfo, fmt.Errorf("logger: unknown level %q", s)
}

// Scoped prefixes every entry with a component name and drops entries
// below a minimum level. The zero value and a nil *Scoped discard everything,
// so components can hold one unconditionally.
type Scoped struct {
	base Logger
	name string
	min  Level
}

// NewScoped wraps base for the named component.
func NewScoped(base Logger, name string, min Level) *Scoped {
	return &Scoped{base: base, name: name, min: min}
}

// Named returns a copy of s using a different component name.
func (s *Scoped) Named(name string) *Scoped {
	if s == nil {
		return nil
	}
	return &Scoped{base: s.base, name: name, min: s.min}
}

// Debugf logs at debug level.
func (s *Scoped) Debugf(format string, v ...any) { s.logf(LevelDebug, format, v...) }

// Infof logs at info level.
func (s *Scoped) Infof(format string, v ...any) { s.logf(LevelInfo, format, v...) }

// Warnf logs at warn level.
func (s *Scoped) Warnf(format string, v ...any) { s.logf(LevelWarn, format, v...) }

// Errorf logs at error level.
func (s *Scoped) Errorf(format string, v ...any) { s.logf(LevelError, format, v...) }

func (s *Scoped) logf(level Level, format string, v ...any) {
	if s == nil || s.base == nil || level < s.min || s.min == LevelSilent {
		return
	}

	msg := fmt.Sprintf(format, v...)
	if s.name != "" {
		msg = "[" + s.name + "] " + msg
	}

	if ll, ok := s.base.(LevelLogger); ok {
		ll.Logf(level, "%s", msg)
		return
	}
	s.base.Printf("%s: %s", strings.ToUpper(level.String()), msg)
}
