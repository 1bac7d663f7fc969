/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package key

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec"

	"github.com/trustbloc/did-auth-jose-go/pkg/crypto/suite/secp256k1suite"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/did"
	"github.com/trustbloc/did-auth-jose-go/pkg/vdr/fingerprint"
)

// Resolve expands a did:key value to a DID document holding its single key.
func (v *VDR) Resolve(didKey string) (*did.DocResolution, error) {
	parsed, err := did.Parse(didKey)
	if err != nil {
		return nil, fmt.Errorf("did:key resolve: %w", err)
	}

	if parsed.Method != DIDMethod {
		return nil, fmt.Errorf("did:key resolve: unsupported method %q", parsed.Method)
	}

	pubKeyBytes, code, err := fingerprint.PubKeyFromFingerprint(parsed.MethodSpecificID)
	if err != nil {
		return nil, fmt.Errorf("did:key resolve: %w", err)
	}

	if code != fingerprint.Secp256k1PubKeyMultiCodec {
		return nil, fmt.Errorf("did:key resolve: unsupported key multicodec code [0x%x]", code)
	}

	if _, err = btcec.ParsePubKey(pubKeyBytes, btcec.S256()); err != nil {
		return nil, fmt.Errorf("did:key resolve: %w: %v", fingerprint.ErrInvalidFingerprint, err)
	}

	id := "did:key:" + parsed.MethodSpecificID

	return &did.DocResolution{DIDDocument: did.BuildDoc(id, did.PublicKey{
		ID:         id + "#" + parsed.MethodSpecificID,
		Type:       secp256k1suite.EcdsaSecp256k1VerificationKey2019,
		Controller: id,
		Value:      pubKeyBytes,
	})}, nil
}
