package misc

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "unknwon.dev/clog/v2"
)

// LogOptions selects the clog backends registered by InitLogging.
type LogOptions struct {
	// Verbose forces trace level on the console.
	Verbose bool
	// Level is the console level name: trace, info, warn, error or fatal.
	Level string
	// File, when set, adds a rotating file logger at trace level.
	File string
	// MaxSize is the rotation size of File in bytes.
	MaxSize int64
}

// InitLogging registers the console logger and the optional file logger.
// Callers must defer clog.Stop via StopLogging.
func InitLogging(opts LogOptions) error {
	level := ParseLevel(opts.Level)
	if opts.Verbose {
		level = log.LevelTrace
	}

	if err := log.NewConsole(0, log.ConsoleConfig{Level: level}); err != nil {
		return errors.Wrap(err, "Register console logger failed")
	}

	if opts.File == "" {
		return nil
	}

	dir := filepath.Dir(opts.File)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "Create log folder ["+dir+"] failed")
	}

	err := log.NewFile(0, log.FileConfig{
		Level:    log.LevelTrace,
		Filename: opts.File,
		FileRotationConfig: log.FileRotationConfig{
			Rotate:  opts.MaxSize > 0,
			MaxSize: opts.MaxSize,
		},
	})
	if err != nil {
		return errors.Wrap(err, "Register file logger ["+opts.File+"] failed")
	}

	return nil
}

// StopLogging flushes and closes every registered logger.
func StopLogging() {
	log.Stop()
}

// ParseLevel maps a level name to a clog level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug":
		return log.LevelTrace
	case "warn", "warning":
		return log.LevelWarn
	case "error":
		return log.LevelError
	case "fatal":
		return log.LevelFatal
	default:
		return log.LevelInfo
	}
}
