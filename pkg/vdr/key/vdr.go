/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package key resolves did:key identifiers of secp256k1 keys without any network access.
package key

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/btcsuite/btcd/btcec"

	"github.com/trustbloc/did-auth-jose-go/pkg/vdr/fingerprint"
)

// DIDMethod did method.
const DIDMethod = "key"

// VDR implements did:key method support.
type VDR struct{}

// New returns new instance of VDR that works with did:key method.
func New() *VDR {
	return &VDR{}
}

// Accept accepts did:key method.
func (v *VDR) Accept(method string) bool {
	return method == DIDMethod
}

// CreateDIDKey returns the did:key of a secp256k1 public key and the id of its verification key.
// Use the key id as the kid of the matching private key.
func CreateDIDKey(pub *ecdsa.PublicKey) (string, string, error) {
	if pub == nil || pub.Curve != btcec.S256() {
		return "", "", fmt.Errorf("did:key: only secp256k1 keys are supported")
	}

	return fingerprint.CreateDIDKey(fingerprint.Secp256k1PubKeyMultiCodec,
		(*btcec.PublicKey)(pub).SerializeCompressed())
}
