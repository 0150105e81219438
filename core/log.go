package core

import "time"

// ModeFlag is the least severe level of message that gets logged.
type ModeFlag uint

const (
	DebugMode ModeFlag = iota
	InfoMode
	WarningMode
	ErrorMode
	SilentMode
)

var (
	// Verbose turns on debug messages whatever the log mode.
	Verbose bool

	mode = InfoMode

	// logger receives all messages that pass the mode check.
	logger Logger = stdLogger{}
)

// Logger writes leveled, printf-style messages.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})

	// Shutdown flushes and closes any log file.
	Shutdown()
}

// SetLogMode sets the least severe level that is logged, e.g., SetLogMode(WarningMode)
// drops debug and info messages.  SilentMode turns logging off.
func SetLogMode(newMode ModeFlag) {
	mode = newMode
}

func logged(level ModeFlag) bool {
	return level >= mode || (level == DebugMode && Verbose)
}

func Debugf(format string, args ...interface{}) {
	if logged(DebugMode) {
		logger.Debugf(format, args...)
	}
}

func Infof(format string, args ...interface{}) {
	if logged(InfoMode) {
		logger.Infof(format, args...)
	}
}

func Warningf(format string, args ...interface{}) {
	if logged(WarningMode) {
		logger.Warningf(format, args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if logged(ErrorMode) {
		logger.Errorf(format, args...)
	}
}

// Shutdown closes the log file if one was set up.
func Shutdown() {
	logger.Shutdown()
}

// TimeLog appends the time since its creation to each message:
//
//	timedLog := core.NewTimeLog()
//	...
//	timedLog.Infof("Exported %d slices", n)  // "Exported 3 slices: 12.5ms"
type TimeLog struct {
	start time.Time
}

func NewTimeLog() TimeLog {
	return TimeLog{time.Now()}
}

// Elapsed returns the time since the TimeLog was created.
func (t TimeLog) Elapsed() time.Duration {
	return time.Since(t.start)
}

func (t TimeLog) Debugf(format string, args ...interface{}) {
	Debugf(format+": %s\n", append(args, t.Elapsed())...)
}

func (t TimeLog) Infof(format string, args ...interface{}) {
	Infof(format+": %s\n", append(args, t.Elapsed())...)
}
