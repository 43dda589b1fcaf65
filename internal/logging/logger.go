// Package logging appends leveled event lines to the scheduler log file.
//
// Every line has the shape
//
//	[2006-01-02 15:04:05] LEVEL: message
//
// with LEVEL one of INFO, WARN or ERROR. A failed write never reaches the
// caller; the line is echoed to stderr instead.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const timestampLayout = "2006-01-02 15:04:05"

// Logger is the narrow interface components receive.
type Logger interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// Config holds logger configuration.
type Config struct {
	Path  string
	Level string
	Fs    afero.Fs
	// Fallback receives lines that could not be written to Path.
	Fallback io.Writer
	Now      func() time.Time
}

// FileLogger wraps zerolog.Logger over an append-only file sink.
type FileLogger struct {
	zl  zerolog.Logger
	now func() time.Time
}

// New builds a FileLogger. Zero fields in cfg fall back to the OS filesystem,
// stderr and the wall clock.
func New(cfg Config) *FileLogger {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.Fallback == nil {
		cfg.Fallback = os.Stderr
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	out := zerolog.ConsoleWriter{
		Out:             &fileSink{fs: cfg.Fs, path: cfg.Path, fallback: cfg.Fallback},
		NoColor:         true,
		PartsOrder:      []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatTimestamp: formatTimestamp,
		FormatLevel:     formatLevel,
		FormatMessage:   formatMessage,
	}

	return &FileLogger{
		zl:  zerolog.New(out).Level(ParseLevel(cfg.Level)),
		now: cfg.Now,
	}
}

func (l *FileLogger) Info(msg string) {
	l.write(l.zl.Info(), msg)
}

func (l *FileLogger) Warn(msg string) {
	l.write(l.zl.Warn(), msg)
}

func (l *FileLogger) Error(msg string) {
	l.write(l.zl.Error(), msg)
}

func (l *FileLogger) write(e *zerolog.Event, msg string) {
	if e == nil {
		return
	}
	e.Str(zerolog.TimestampFieldName, l.now().Format(timestampLayout)).Msg(msg)
}

// ParseLevel maps a config string onto a zerolog level; unknown values mean info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func formatTimestamp(i interface{}) string {
	return fmt.Sprintf("[%v]", i)
}

func formatLevel(i interface{}) string {
	s, _ := i.(string)
	return strings.ToUpper(s) + ":"
}

func formatMessage(i interface{}) string {
	if i == nil {
		return ""
	}
	return fmt.Sprint(i)
}

// fileSink opens the log file for every line so that no handle outlives a
// write. mu guards only the open/append/close sequence.
type fileSink struct {
	mu       sync.Mutex
	fs       afero.Fs
	path     string
	fallback io.Writer
}

func (s *fileSink) Write(p []byte) (int, error) {
	if err := s.append(p); err != nil {
		_, _ = fmt.Fprintf(s.fallback, "LOGGING FAILURE: %s", p)
	}
	return len(p), nil
}

func (s *fileSink) append(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.fs.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(p); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

type nopLogger struct{}

func (nopLogger) Info(string)  {}
func (nopLogger) Warn(string)  {}
func (nopLogger) Error(string) {}

// Nop discards everything.
func Nop() Logger {
	return nopLogger{}
}
