/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package modlog gates any log.Logger by the per-module level settings.
package modlog

import (
	"github.com/trustbloc/did-auth-jose-go/pkg/common/log/internal/metadata"
	"github.com/trustbloc/did-auth-jose-go/spi/log"
)

// ModLog forwards to an underlying logger only the levels enabled for its module.
type ModLog struct {
	logger log.Logger
	module string
}

// NewModLog wraps logger for module.
func NewModLog(logger log.Logger, module string) *ModLog {
	return &ModLog{logger: logger, module: module}
}

// Fatalf is never filtered.
func (m *ModLog) Fatalf(format string, args ...interface{}) {
	m.logger.Fatalf(format, args...)
}

// Panicf is never filtered.
func (m *ModLog) Panicf(format string, args ...interface{}) {
	m.logger.Panicf(format, args...)
}

// Debugf logs if DEBUG is enabled for the module.
func (m *ModLog) Debugf(format string, args ...interface{}) {
	if metadata.IsEnabledFor(m.module, log.DEBUG) {
		m.logger.Debugf(format, args...)
	}
}

// Infof logs if INFO is enabled for the module.
func (m *ModLog) Infof(format string, args ...interface{}) {
	if metadata.IsEnabledFor(m.module, log.INFO) {
		m.logger.Infof(format, args...)
	}
}

// Warnf logs if WARNING is enabled for the module.
func (m *ModLog) Warnf(format string, args ...interface{}) {
	if metadata.IsEnabledFor(m.module, log.WARNING) {
		m.logger.Warnf(format, args...)
	}
}

// Errorf logs if ERROR is enabled for the module.
func (m *ModLog) Errorf(format string, args ...interface{}) {
	if metadata.IsEnabledFor(m.module, log.ERROR) {
		m.logger.Errorf(format, args...)
	}
}

// Unwrap returns the wrapped logger.
func (m *ModLog) Unwrap() log.Logger {
	return m.logger
}
