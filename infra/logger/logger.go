package logger

import corelogger "github.com/tbrossard/evtwin/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger is re-exported for callers that only import infra/logger.
type NopLogger = corelogger.NopLogger

// New returns a Logger for the given component. The environment is detected
// via the APP_ENV variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}
