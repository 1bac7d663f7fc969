/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package metadata keeps the per-module logging settings (levels and caller info).
package metadata

import (
	"errors"
	"strings"

	"github.com/trustbloc/did-auth-jose-go/spi/log"
)

const (
	defaultLogLevel   = log.INFO
	defaultModuleName = ""
)

// levelNames - log level names in string, indexed by log.Level.
var levelNames = []string{ //nolint:gochecknoglobals
	"CRITICAL",
	"ERROR",
	"WARNING",
	"INFO",
	"DEBUG",
}

// ErrInvalidLevel is returned by ParseLevel for an unknown level name.
var ErrInvalidLevel = errors.New("logger: invalid log level")

type moduleLevels struct {
	levels map[string]log.Level
}

func newModuleLevels() *moduleLevels {
	return &moduleLevels{levels: make(map[string]log.Level)}
}

// get falls back to the "" module and then to INFO.
func (l *moduleLevels) get(module string) log.Level {
	if level, ok := l.levels[module]; ok {
		return level
	}

	if level, ok := l.levels[defaultModuleName]; ok {
		return level
	}

	return defaultLogLevel
}

func (l *moduleLevels) set(module string, level log.Level) {
	l.levels[module] = level
}

func (l *moduleLevels) isEnabledFor(module string, level log.Level) bool {
	return level <= l.get(module)
}

// ParseLevel returns the log level from a case-insensitive string representation.
func ParseLevel(level string) (log.Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(name, level) {
			return log.Level(i), nil
		}
	}

	return log.ERROR, ErrInvalidLevel
}

// ParseString returns string representation of given log level.
func ParseString(level log.Level) string {
	if level < log.CRITICAL || int(level) >= len(levelNames) {
		return "UNKNOWN"
	}

	return levelNames[level]
}
