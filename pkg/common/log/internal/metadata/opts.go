/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metadata

import (
	"sync"

	"github.com/trustbloc/did-auth-jose-go/spi/log"
)

//nolint:gochecknoglobals
var (
	rwmutex     = &sync.RWMutex{}
	levels      = newModuleLevels()
	callerInfos = newCallerInfo()
)

// SetLevel - setting log level for given module.
func SetLevel(module string, level log.Level) {
	rwmutex.Lock()
	defer rwmutex.Unlock()

	levels.set(module, level)
}

// GetLevel - getting log level for given module.
func GetLevel(module string) log.Level {
	rwmutex.RLock()
	defer rwmutex.RUnlock()

	return levels.get(module)
}

// IsEnabledFor - Check if given log level is enabled for given module.
func IsEnabledFor(module string, level log.Level) bool {
	rwmutex.RLock()
	defer rwmutex.RUnlock()

	return levels.isEnabledFor(module, level)
}

// ShowCallerInfo - Show caller info in log lines for given log level and module.
func ShowCallerInfo(module string, level log.Level) {
	rwmutex.Lock()
	defer rwmutex.Unlock()

	callerInfos.set(module, level, true)
}

// HideCallerInfo - Do not show caller info in log lines for given log level and module.
func HideCallerInfo(module string, level log.Level) {
	rwmutex.Lock()
	defer rwmutex.Unlock()

	callerInfos.set(module, level, false)
}

// IsCallerInfoEnabled - returns if caller info enabled for given log level and module.
func IsCallerInfoEnabled(module string, level log.Level) bool {
	rwmutex.RLock()
	defer rwmutex.RUnlock()

	return callerInfos.isEnabled(module, level)
}
