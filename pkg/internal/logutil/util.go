/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package logutil formats command-scoped log lines as command=[..] action=[..] key=[value]...
package logutil

import (
	"fmt"
	"strings"

	"github.com/trustbloc/did-auth-jose-go/spi/log"
)

// LogError logs a failed command action.
func LogError(logger log.Logger, command, action, errMsg string, data ...string) {
	logger.Errorf("command=[%s] action=[%s]%s errMsg=[%s]", command, action, joinData(data), errMsg)
}

// LogDebug logs a command action at DEBUG.
func LogDebug(logger log.Logger, command, action, msg string, data ...string) {
	logger.Debugf("command=[%s] action=[%s]%s msg=[%s]", command, action, joinData(data), msg)
}

// LogInfo logs a command action at INFO.
func LogInfo(logger log.Logger, command, action, msg string, data ...string) {
	logger.Infof("command=[%s] action=[%s]%s msg=[%s]", command, action, joinData(data), msg)
}

// CreateKeyValueString creates a concatenated string.
func CreateKeyValueString(key, val string) string {
	return fmt.Sprintf("%s=[%s]", key, val)
}

func joinData(data []string) string {
	if len(data) == 0 {
		return ""
	}

	return " " + strings.Join(data, " ")
}
