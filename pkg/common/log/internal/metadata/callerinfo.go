/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metadata

import "github.com/trustbloc/did-auth-jose-go/spi/log"

type callerInfoKey struct {
	module string
	level  log.Level
}

// callerInfo maintains module and level based switches to show or hide caller info.
type callerInfo struct {
	showcaller map[callerInfoKey]bool
}

// newCallerInfo enables caller info for every level of the default module.
func newCallerInfo() *callerInfo {
	show := make(map[callerInfoKey]bool, len(levelNames))

	for i := range levelNames {
		show[callerInfoKey{defaultModuleName, log.Level(i)}] = true
	}

	return &callerInfo{showcaller: show}
}

func (c *callerInfo) set(module string, level log.Level, show bool) {
	c.showcaller[callerInfoKey{module, level}] = show
}

func (c *callerInfo) isEnabled(module string, level log.Level) bool {
	if show, ok := c.showcaller[callerInfoKey{module, level}]; ok {
		return show
	}

	return c.showcaller[callerInfoKey{defaultModuleName, level}]
}
