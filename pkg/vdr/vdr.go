/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package vdr resolves DIDs to DID documents through pluggable verifiable data registries.
package vdr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/trustbloc/did-auth-jose-go/pkg/doc/did"
)

// ErrNotFound is returned when a DID cannot be resolved.
var ErrNotFound = errors.New("DID does not exist")

// Resolver resolves a DID to its document.
type Resolver interface {
	Resolve(did string) (*did.DocResolution, error)
}

// ResolverFunc adapts a function to a Resolver.
type ResolverFunc func(did string) (*did.DocResolution, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(didID string) (*did.DocResolution, error) {
	return f(didID)
}

// GetDidMethod get did method.
func GetDidMethod(didID string) (string, error) {
	const numPartsDID = 3

	didParts := strings.Split(didID, ":")
	if len(didParts) < numPartsDID || didParts[0] != "did" {
		return "", fmt.Errorf("wrong format did input: %s", didID)
	}

	return didParts[1], nil
}
