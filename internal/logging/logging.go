// Package logging adds severity levels and an optional rotating log file to
// the standard logger. Messages always go through the log package, so the
// flags and output chosen in main apply.
package logging

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/natefinch/lumberjack"
)

// Mode is the minimum severity that gets written.
type Mode int32

const (
	DebugMode Mode = iota
	InfoMode
	WarningMode
	ErrorMode
	SilentMode
)

var mode atomic.Int32

func init() { mode.Store(int32(InfoMode)) }

// SetMode sets the severity required for a message to be printed.
func SetMode(m Mode) { mode.Store(int32(m)) }

// CurrentMode returns the active severity threshold.
func CurrentMode() Mode { return Mode(mode.Load()) }

// ParseMode maps "debug", "info", "warning" (or "warn"), "error" and
// "silent" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugMode, nil
	case "", "info":
		return InfoMode, nil
	case "warning", "warn":
		return WarningMode, nil
	case "error":
		return ErrorMode, nil
	case "silent":
		return SilentMode, nil
	}
	return InfoMode, fmt.Errorf("unknown log level %q", s)
}

func logf(m Mode, tag, format string, args ...interface{}) {
	if CurrentMode() <= m {
		log.Printf(tag+format, args...)
	}
}

// Debugf formats its arguments like fmt.Printf and logs them at DEBUG level.
func Debugf(format string, args ...interface{}) { logf(DebugMode, " DEBUG ", format, args...) }

// Infof is like Debugf at INFO level.
func Infof(format string, args ...interface{}) { logf(InfoMode, " INFO ", format, args...) }

// Warningf is like Debugf at WARNING level.
func Warningf(format string, args ...interface{}) { logf(WarningMode, " WARNING ", format, args...) }

// Errorf is like Debugf at ERROR level.
func Errorf(format string, args ...interface{}) { logf(ErrorMode, " ERROR ", format, args...) }

// FileConfig describes a rotating log file.
type FileConfig struct {
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxAgeDays int    `toml:"max_age_days"`
	Level      string `toml:"level"`
}

// Setup applies the level and, when a file is named, redirects the standard
// logger to it. The returned function closes the file; it is never nil.
func Setup(c FileConfig) (func() error, error) {
	m, err := ParseMode(c.Level)
	if err != nil {
		return func() error { return nil }, err
	}
	SetMode(m)

	if c.File == "" {
		return func() error { return nil }, nil
	}
	l := &lumberjack.Logger{
		Filename: c.File,
		MaxSize:  c.MaxSizeMB, // megabytes
		MaxAge:   c.MaxAgeDays,
	}
	log.SetOutput(l)
	Infof("Sending log messages to %s", c.File)
	return l.Close, nil
}

// TimeLog appends the elapsed time since its creation to every message.
type TimeLog struct {
	start time.Time
}

func NewTimeLog() TimeLog { return TimeLog{start: time.Now()} }

func (t TimeLog) Debugf(format string, args ...interface{}) {
	Debugf(format+": %s", append(args, time.Since(t.start))...)
}

func (t TimeLog) Infof(format string, args ...interface{}) {
	Infof(format+": %s", append(args, time.Since(t.start))...)
}
