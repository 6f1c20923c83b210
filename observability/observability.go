// seehuhn.de/go/clut - convert colour lookup tables
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package observability defines the structured logging hooks used by the
// conversion pipeline.
//
// Library code only ever talks to the [Logger] interface. The default is
// [NopLogger]; command line tools use [NewTextLogger].
package observability

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Logger receives structured log events.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field is a key/value pair attached to a log event.
type Field interface {
	Key() string
	Value() any
}

type stringField struct{ key, val string }

func (f stringField) Key() string { return f.key }
func (f stringField) Value() any  { return f.val }

type intField struct {
	key string
	val int
}

func (f intField) Key() string { return f.key }
func (f intField) Value() any  { return f.val }

type floatField struct {
	key string
	val float64
}

func (f floatField) Key() string { return f.key }
func (f floatField) Value() any  { return f.val }

type errorField struct {
	key string
	err error
}

func (f errorField) Key() string { return f.key }
func (f errorField) Value() any  { return f.err }

func String(key, value string) Field        { return stringField{key, value} }
func Int(key string, value int) Field       { return intField{key, value} }
func Float(key string, value float64) Field { return floatField{key, value} }
func Error(key string, err error) Field     { return errorField{key, err} }

// NopLogger discards all events.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// Level orders log events by severity.
type Level int

// The log levels, from most to least verbose.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// TextLogger writes one line per event in the form
//
//	LEVEL message key=value key=value
//
// Events below the configured level are dropped.
// A TextLogger is safe for concurrent use.
type TextLogger struct {
	out    *lockedWriter
	level  Level
	fields []Field
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextLogger returns a logger writing to w.
func NewTextLogger(w io.Writer, level Level) *TextLogger {
	return &TextLogger{
		out:   &lockedWriter{w: w},
		level: level,
	}
}

func (l *TextLogger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, fields) }
func (l *TextLogger) Info(msg string, fields ...Field)  { l.log(LevelInfo, msg, fields) }
func (l *TextLogger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, msg, fields) }
func (l *TextLogger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields) }

// With returns a logger which adds the given fields to every event.
func (l *TextLogger) With(fields ...Field) Logger {
	all := make([]Field, 0, len(l.fields)+len(fields))
	all = append(all, l.fields...)
	all = append(all, fields...)
	return &TextLogger{out: l.out, level: l.level, fields: all}
}

func (l *TextLogger) log(level Level, msg string, fields []Field) {
	if level < l.level {
		return
	}

	var b strings.Builder
	b.WriteString(level.String())
	b.WriteByte(' ')
	b.WriteString(msg)
	for _, group := range [][]Field{l.fields, fields} {
		for _, f := range group {
			b.WriteByte(' ')
			b.WriteString(f.Key())
			b.WriteByte('=')
			b.WriteString(formatValue(f.Value()))
		}
	}
	b.WriteByte('\n')

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	io.WriteString(l.out.w, b.String())
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		if v == "" || strings.ContainsAny(v, " \t\"=") {
			return fmt.Sprintf("%q", v)
		}
		return v
	case error:
		if v == nil {
			return "<nil>"
		}
		return fmt.Sprintf("%q", v.Error())
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprint(v)
	}
}
