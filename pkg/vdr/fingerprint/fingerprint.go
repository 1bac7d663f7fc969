/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fingerprint

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/multiformats/go-multibase"
)

const (
	// source: https://github.com/multiformats/multicodec/blob/master/table.csv.

	// Secp256k1PubKeyMultiCodec is the multicodec of a compressed secp256k1 public key.
	Secp256k1PubKeyMultiCodec = 0xe7
	// RSAPubKeyMultiCodec is the multicodec of a PKCS#1 RSA public key.
	RSAPubKeyMultiCodec = 0x1205
)

// ErrInvalidFingerprint is returned for method ids that are not multibase multicodec keys.
var ErrInvalidFingerprint = errors.New("invalid key fingerprint")

// CreateDIDKey creates a did:key ID and its key ID from a multicodec code and raw public key bytes.
// Format: https://w3c-ccg.github.io/did-method-key/#format.
func CreateDIDKey(code uint64, pubKey []byte) (string, string, error) {
	methodID, err := KeyFingerprint(code, pubKey)
	if err != nil {
		return "", "", err
	}

	didKey := fmt.Sprintf("did:key:%s", methodID)
	keyID := fmt.Sprintf("%s#%s", didKey, methodID)

	return didKey, keyID, nil
}

// KeyFingerprint generates the base58-btc multibase fingerprint of pubKeyValue prefixed with the
// varint encoded multicodec code.
func KeyFingerprint(code uint64, pubKeyValue []byte) (string, error) {
	buf := make([]byte, binary.MaxVarintLen64, binary.MaxVarintLen64+len(pubKeyValue))
	n := binary.PutUvarint(buf, code)
	buf = append(buf[:n], pubKeyValue...)

	return multibase.Encode(multibase.Base58BTC, buf)
}

// PubKeyFromFingerprint extracts the raw public key and its multicodec code from a fingerprint.
func PubKeyFromFingerprint(fingerprint string) ([]byte, uint64, error) {
	enc, mc, err := multibase.Decode(fingerprint)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidFingerprint, err)
	}

	if enc != multibase.Base58BTC {
		return nil, 0, fmt.Errorf("%w: unexpected multibase encoding %q", ErrInvalidFingerprint, string(rune(enc)))
	}

	code, n := binary.Uvarint(mc)
	if n <= 0 || n == len(mc) {
		return nil, 0, fmt.Errorf("%w: no key after multicodec prefix", ErrInvalidFingerprint)
	}

	return mc[n:], code, nil
}
