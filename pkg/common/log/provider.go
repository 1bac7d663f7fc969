/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package log

import (
	"sync"

	"github.com/trustbloc/did-auth-jose-go/pkg/common/log/internal/modlog"
	"github.com/trustbloc/did-auth-jose-go/spi/log"
)

// loggerProviderInstance is logger factory singleton - access only via loggerProvider()
//
//nolint:gochecknoglobals
var (
	loggerProviderInstance log.LoggerProvider
	loggerProviderOnce     sync.Once
)

// Initialize sets a custom logging provider. Only the first call before any logging has effect.
func Initialize(l log.LoggerProvider) {
	loggerProviderOnce.Do(func() {
		loggerProviderInstance = &modlogProvider{custom: l}
		loggerProviderInstance.GetLogger(loggerModule).Debugf("Logger provider initialized")
	})
}

func loggerProvider() log.LoggerProvider {
	loggerProviderOnce.Do(func() {
		loggerProviderInstance = &modlogProvider{}
		loggerProviderInstance.GetLogger(loggerModule).Debugf(loggerNotInitializedMsg)
	})

	return loggerProviderInstance
}

// modlogProvider wraps the custom provider's loggers, or the default logger, with module level filtering.
type modlogProvider struct {
	custom log.LoggerProvider
}

func (p *modlogProvider) GetLogger(module string) log.Logger {
	if p.custom != nil {
		return modlog.NewModLog(p.custom.GetLogger(module), module)
	}

	return modlog.NewModLog(modlog.NewDefLog(module), module)
}
