package logging

import (
	"fmt"
	"io"
	"log"
	"sync"
)

type Level int8

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

type Logger struct {
	maxLevel Level
	prefix   string
	out      *log.Logger
	mu       sync.RWMutex
}

func NewLogger(level Level, output io.Writer) *Logger {
	return &Logger{
		maxLevel: level,
		out:      log.New(output, "", log.LstdFlags),
	}
}

// Named returns a logger that tags every line with a component name.
// It shares the parent's output and level.
func (l *Logger) Named(name string) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &Logger{
		maxLevel: l.maxLevel,
		prefix:   name + ": ",
		out:      l.out,
	}
}

func (l *Logger) Debug(args ...any) {
	if l.ok(DebugLevel) {
		l.out.Printf("[DEBUG] %s%v", l.prefix, fmt.Sprint(args...))
	}
}

func (l *Logger) Info(args ...any) {
	if l.ok(InfoLevel) {
		l.out.Printf("[INFO] %s%v", l.prefix, fmt.Sprint(args...))
	}
}

func (l *Logger) Warn(args ...any) {
	if l.ok(WarnLevel) {
		l.out.Printf("[WARN] %s%v", l.prefix, fmt.Sprint(args...))
	}
}

func (l *Logger) Error(args ...any) {
	if l.ok(ErrorLevel) {
		l.out.Printf("[ERROR] %s%v", l.prefix, fmt.Sprint(args...))
	}
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.maxLevel = level
	l.mu.Unlock()
}

func (l *Logger) ok(level Level) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.maxLevel
}
