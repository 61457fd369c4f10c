package misc

import (
	"strings"

	log "unknwon.dev/clog/v2"
)

// Logger is the prefixed printf-style logger shared by both tools.
type Logger interface {
	Trace(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
	Fatal(format string, v ...interface{})
	// With returns a logger whose prefix is extended by scope, e.g.
	// "[PRICE:IMPORT]".
	With(scope string) Logger
}

// NewLogger create Logger instance with `prefix`, `skip` is used for `Error` and `Fatal` stack trace.
//
//	Example:
//		log := NewLogger("Queue", 2)
func NewLogger(prefix string, skip int) Logger {
	l := &logPrefix{skip: skip}
	if prefix != "" {
		l.scopes = []string{strings.ToTitle(prefix)}
	}
	return l
}

type logPrefix struct {
	scopes []string
	skip   int
}

func (l *logPrefix) With(scope string) Logger {
	scopes := make([]string, 0, len(l.scopes)+1)
	scopes = append(scopes, l.scopes...)
	return &logPrefix{
		scopes: append(scopes, strings.ToTitle(scope)),
		skip:   l.skip,
	}
}

func (l *logPrefix) format(format string) string {
	if len(l.scopes) == 0 {
		return format
	}
	return "[" + strings.Join(l.scopes, ":") + "] " + format
}

func (l *logPrefix) Trace(format string, v ...interface{}) {
	log.Trace(l.format(format), v...)
}

func (l *logPrefix) Info(format string, v ...interface{}) {
	log.Info(l.format(format), v...)
}

func (l *logPrefix) Warn(format string, v ...interface{}) {
	log.Warn(l.format(format), v...)
}

func (l *logPrefix) Error(format string, v ...interface{}) {
	log.ErrorDepth(l.skip, l.format(format), v...)
}

func (l *logPrefix) Fatal(format string, v ...interface{}) {
	log.FatalDepth(l.skip, l.format(format), v...)
}
