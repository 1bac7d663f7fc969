/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package log implements a generic string logger for fmt-style log messages intended for developers & debugging.
//
// Every package declares its own module logger:
//
//	var logger = log.New("didauth/jose")
//
// and levels are tuned per module with SetLevel, or for all modules with SetLevel("", level).
package log

import (
	"sync"

	"github.com/trustbloc/did-auth-jose-go/pkg/common/log/internal/metadata"
	"github.com/trustbloc/did-auth-jose-go/spi/log"
)

//nolint:lll
const (
	loggerNotInitializedMsg = "Default logger initialized (please call log.Initialize() if you wish to use a custom logger)"
	loggerModule            = "didauth/common"
)

// Log is a module logger. The underlying logger is created on first use, so
// Initialize must run before the first line is logged for a custom provider to take effect.
type Log struct {
	instance log.Logger
	module   string
	once     sync.Once
}

// New returns the logger for module.
func New(module string) *Log {
	return &Log{module: module}
}

// Fatalf logs at CRITICAL; the default logger then exits the process.
func (l *Log) Fatalf(msg string, args ...interface{}) {
	l.logger().Fatalf(msg, args...)
}

// Panicf logs at CRITICAL; the default logger then panics.
func (l *Log) Panicf(msg string, args ...interface{}) {
	l.logger().Panicf(msg, args...)
}

// Debugf calls Debugf function of underlying logger.
func (l *Log) Debugf(msg string, args ...interface{}) {
	l.logger().Debugf(msg, args...)
}

// Infof calls Infof function of underlying logger.
func (l *Log) Infof(msg string, args ...interface{}) {
	l.logger().Infof(msg, args...)
}

// Warnf calls Warnf function of underlying logger.
func (l *Log) Warnf(msg string, args ...interface{}) {
	l.logger().Warnf(msg, args...)
}

// Errorf calls Errorf function of underlying logger.
func (l *Log) Errorf(msg string, args ...interface{}) {
	l.logger().Errorf(msg, args...)
}

func (l *Log) logger() log.Logger {
	l.once.Do(func() {
		l.instance = loggerProvider().GetLogger(l.module)
	})

	return l.instance
}

// SetLevel sets the log level of module. The empty module name sets the default for all modules.
// Without any setting the level is INFO.
func SetLevel(module string, level log.Level) {
	metadata.SetLevel(module, level)
}

// GetLevel returns the effective log level of module.
func GetLevel(module string) log.Level {
	return metadata.GetLevel(module)
}

// IsEnabledFor reports whether level is logged for module.
func IsEnabledFor(module string, level log.Level) bool {
	return metadata.IsEnabledFor(module, level)
}

// ParseLevel returns the log level from a case-insensitive name such as "debug".
func ParseLevel(level string) (log.Level, error) {
	return metadata.ParseLevel(level)
}

// ParseString returns the name of level.
func ParseString(level log.Level) string {
	return metadata.ParseString(level)
}

// ShowCallerInfo shows the calling function in log lines of module at level.
// Custom providers may ignore this setting.
func ShowCallerInfo(module string, level log.Level) {
	metadata.ShowCallerInfo(module, level)
}

// HideCallerInfo hides the calling function in log lines of module at level.
func HideCallerInfo(module string, level log.Level) {
	metadata.HideCallerInfo(module, level)
}

// IsCallerInfoEnabled reports whether caller info is shown for module at level.
func IsCallerInfoEnabled(module string, level log.Level) bool {
	return metadata.IsCallerInfoEnabled(module, level)
}
