/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

// LookupPublicKey returns the public key with the given id from the given DID Doc.
func LookupPublicKey(id string, didDoc *Doc) (*PublicKey, bool) {
	for i := range didDoc.PublicKey {
		if didDoc.PublicKey[i].ID == id {
			return &didDoc.PublicKey[i], true
		}
	}

	return nil, false
}

// BuildDoc creates a DID document with the given id and keys.
func BuildDoc(id string, keys ...PublicKey) *Doc {
	return &Doc{Context: []string{Context}, ID: id, PublicKey: keys}
}

func stringEntry(entry interface{}) string {
	s, _ := entry.(string)

	return s
}

func mapEntry(entry interface{}) map[string]interface{} {
	m, _ := entry.(map[string]interface{})

	return m
}
