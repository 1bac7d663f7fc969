/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package modlog

import (
	"fmt"
	"io"
	builtinlog "log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/trustbloc/did-auth-jose-go/pkg/common/log/internal/metadata"
	"github.com/trustbloc/did-auth-jose-go/spi/log"
)

const (
	logLevelFormatter   = "UTC %s-> %s "
	logPrefixFormatter  = " [%s] "
	callerInfoFormatter = "- %s "

	// frames of this package and of the public log wrapper sitting above the real caller.
	skipCallers      = 5
	maxCallers       = 6
	callerNotFound   = "n/a"
	wrapperFnPrefix  = "log.(*Log)"
	outputCallDepth  = 2
	exitCodeCritical = 1
)

// DefLog is the built-in logger, writing through the standard library log package.
// Line format: [<module>] <date time> UTC - <caller> -> <LEVEL> <message>.
type DefLog struct {
	logger *builtinlog.Logger
	module string
}

// NewDefLog returns a DefLog for module writing to stdout.
func NewDefLog(module string) *DefLog {
	return &DefLog{
		logger: builtinlog.New(os.Stdout, fmt.Sprintf(logPrefixFormatter, module),
			builtinlog.Ldate|builtinlog.Ltime|builtinlog.LUTC),
		module: module,
	}
}

// Fatalf logs at CRITICAL and exits the process.
func (l *DefLog) Fatalf(format string, args ...interface{}) {
	l.logf(log.CRITICAL, format, args...)
	os.Exit(exitCodeCritical)
}

// Panicf logs at CRITICAL and panics with the formatted message.
func (l *DefLog) Panicf(format string, args ...interface{}) {
	l.logf(log.CRITICAL, format, args...)
	panic(fmt.Sprintf(format, args...))
}

// Debugf logs at DEBUG.
func (l *DefLog) Debugf(format string, args ...interface{}) {
	l.logf(log.DEBUG, format, args...)
}

// Infof logs at INFO.
func (l *DefLog) Infof(format string, args ...interface{}) {
	l.logf(log.INFO, format, args...)
}

// Warnf logs at WARNING.
func (l *DefLog) Warnf(format string, args ...interface{}) {
	l.logf(log.WARNING, format, args...)
}

// Errorf logs at ERROR.
func (l *DefLog) Errorf(format string, args ...interface{}) {
	l.logf(log.ERROR, format, args...)
}

// SetOutput sets the output destination for the logger.
func (l *DefLog) SetOutput(output io.Writer) {
	l.logger.SetOutput(output)
}

func (l *DefLog) logf(level log.Level, format string, args ...interface{}) {
	prefix := fmt.Sprintf(logLevelFormatter, l.callerInfo(level), metadata.ParseString(level))

	if err := l.logger.Output(outputCallDepth, prefix+fmt.Sprintf(format, args...)); err != nil {
		fmt.Printf("error from logger.Output %v\n", err) //nolint:forbidigo
	}
}

// callerInfo walks the stack past the logging wrappers to name the function that logged.
func (l *DefLog) callerInfo(level log.Level) string {
	if !metadata.IsCallerInfoEnabled(l.module, level) {
		return ""
	}

	pcs := make([]uintptr, maxCallers)

	n := runtime.Callers(skipCallers, pcs)
	if n == 0 {
		return fmt.Sprintf(callerInfoFormatter, callerNotFound)
	}

	frames := runtime.CallersFrames(pcs[:n])
	wrapperSeen := false

	for f, more := frames.Next(); more; f, more = frames.Next() {
		_, fnName := filepath.Split(f.Function)
		if f.Func == nil || f.Function == "" {
			fnName = callerNotFound
		}

		if !wrapperSeen && strings.HasPrefix(fnName, wrapperFnPrefix) {
			wrapperSeen = true

			continue
		}

		return fmt.Sprintf(callerInfoFormatter, fnName)
	}

	return fmt.Sprintf(callerInfoFormatter, callerNotFound)
}
