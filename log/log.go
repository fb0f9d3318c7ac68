// Copyright 2021 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package log provides the leveled logging helper used throughout coda.
package log

import (
	"fmt"
	"io"
	"log"
	"sync"
)

// Level is a logger level.
type Level int8

// Logger levels.
const (
	LevelDebug Level = iota - 1
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
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
	case LevelFatal:
		return "FATAL"
	}
	return ""
}

// Logger is a logger interface.
type Logger interface {
	Log(level Level, keyvals ...interface{}) error
}

type stdLogger struct {
	log  *log.Logger
	pool *sync.Pool
}

// NewStdLogger creates a logger that writes to w via the standard library.
func NewStdLogger(w io.Writer) Logger {
	return &stdLogger{
		log: log.New(w, "", log.LstdFlags),
		pool: &sync.Pool{
			New: func() interface{} {
				return new(stringBuilder)
			},
		},
	}
}

type stringBuilder struct {
	buf []byte
}

func (b *stringBuilder) reset()         { b.buf = b.buf[:0] }
func (b *stringBuilder) string() string { return string(b.buf) }
func (b *stringBuilder) write(s string) { b.buf = append(b.buf, s...) }

// Log prints the keyvals as a sequence of key=value pairs.
func (l *stdLogger) Log(level Level, keyvals ...interface{}) error {
	if len(keyvals) == 0 {
		return nil
	}
	if (len(keyvals) & 1) == 1 {
		keyvals = append(keyvals, "KEYVALS UNPAIRED")
	}
	buf := l.pool.Get().(*stringBuilder)
	buf.write(level.String())
	for i := 0; i < len(keyvals); i += 2 {
		buf.write(fmt.Sprintf(" %s=%v", keyvals[i], keyvals[i+1]))
	}
	l.log.Output(4, buf.string()) //nolint:errcheck
	buf.reset()
	l.pool.Put(buf)
	return nil
}
