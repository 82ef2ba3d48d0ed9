// Package flog provides the level-gated logging abstraction used
// throughout flagcore, so that every subsystem logs through the same
// configurable sink instead of calling the log package directly.
package flog

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Level is a logging severity. Messages below the configured minimum level
// are discarded before formatting.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
	// None disables all logging.
	None
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "NONE"
	}
}

// Loggers is the logging facade passed through Config to every component.
// The zero value logs at Info level and above to os.Stderr.
type Loggers struct {
	minLevel Level
	loggers  [4]*log.Logger
	inited   bool
}

func (l *Loggers) init() {
	if l.inited {
		return
	}
	for lvl := Debug; lvl <= Error; lvl++ {
		l.loggers[lvl] = log.New(os.Stderr, "", log.LstdFlags)
	}
	l.minLevel = Info
	l.inited = true
}

// SetBaseLogger directs all levels to the given io.Writer with a common prefix.
func (l *Loggers) SetBaseLogger(w io.Writer) {
	l.init()
	for lvl := Debug; lvl <= Error; lvl++ {
		l.loggers[lvl] = log.New(w, l.loggers[lvl].Prefix(), log.LstdFlags)
	}
}

// SetMinLevel sets the minimum level that will be logged; messages below it are discarded.
func (l *Loggers) SetMinLevel(level Level) {
	l.init()
	l.minLevel = level
}

// SetPrefix sets a string prepended to every log line, conventionally the
// component name (e.g. "InMemoryDataStore:").
func (l *Loggers) SetPrefix(prefix string) {
	l.init()
	for lvl := Debug; lvl <= Error; lvl++ {
		l.loggers[lvl].SetPrefix(prefix)
	}
}

// IsDebugEnabled reports whether Debug-level messages will actually be written.
func (l *Loggers) IsDebugEnabled() bool {
	l.init()
	return l.minLevel <= Debug
}

func (l *Loggers) log(level Level, args ...interface{}) {
	l.init()
	if level < l.minLevel {
		return
	}
	l.loggers[level].Print(append([]interface{}{level.String() + ": "}, args...)...)
}

func (l *Loggers) logf(level Level, format string, args ...interface{}) {
	l.init()
	if level < l.minLevel {
		return
	}
	l.loggers[level].Print(level.String() + ": " + fmt.Sprintf(format, args...))
}

func (l *Loggers) Debug(args ...interface{})                 { l.log(Debug, args...) }
func (l *Loggers) Debugf(format string, args ...interface{}) { l.logf(Debug, format, args...) }
func (l *Loggers) Info(args ...interface{})                  { l.log(Info, args...) }
func (l *Loggers) Infof(format string, args ...interface{})  { l.logf(Info, format, args...) }
func (l *Loggers) Warn(args ...interface{})                  { l.log(Warn, args...) }
func (l *Loggers) Warnf(format string, args ...interface{})  { l.logf(Warn, format, args...) }
func (l *Loggers) Error(args ...interface{})                 { l.log(Error, args...) }
func (l *Loggers) Errorf(format string, args ...interface{}) { l.logf(Error, format, args...) }
