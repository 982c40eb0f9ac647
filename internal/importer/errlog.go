package importer

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrorLog accumulates import errors, each prefixed with the context stack
// active when it was recorded.
type ErrorLog struct {
	logger   *zap.Logger
	contexts []string
	errs     []string
}

// NewErrorLog returns an empty ErrorLog that flushes to logger, or discards
// when logger is nil.
func NewErrorLog(logger *zap.Logger) *ErrorLog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLog{logger: logger}
}

// PushContext adds ctx to the stack until the returned func is called.
func (l *ErrorLog) PushContext(ctx string) func() {
	l.contexts = append(l.contexts, ctx)
	depth := len(l.contexts)
	return func() {
		if len(l.contexts) >= depth {
			l.contexts = l.contexts[:depth-1]
		}
	}
}

// Log records msg under the current context stack.
func (l *ErrorLog) Log(msg string) {
	if len(l.contexts) > 0 {
		msg = "[" + strings.Join(l.contexts, "][") + "] " + msg
	}
	l.errs = append(l.errs, msg)
}

// Logf is Log with fmt.Sprintf formatting.
func (l *ErrorLog) Logf(format string, args ...interface{}) {
	l.Log(fmt.Sprintf(format, args...))
}

// Num returns the number of errors recorded since the last Flush.
func (l *ErrorLog) Num() int {
	return len(l.errs)
}

// Errors returns a copy of the recorded messages.
func (l *ErrorLog) Errors() []string {
	out := make([]string, len(l.errs))
	copy(out, l.errs)
	return out
}

// Flush writes every recorded error to the logger and clears the log.
func (l *ErrorLog) Flush() {
	for _, e := range l.errs {
		l.logger.Error(e)
	}
	l.errs = l.errs[:0]
}
