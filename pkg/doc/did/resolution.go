/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDIDDocumentNotExist is returned when a resolution result carries no didDocument.
var ErrDIDDocumentNotExist = errors.New("did document not exists")

// DocResolution is the result of resolving a DID.
type DocResolution struct {
	Context          []string
	DIDDocument      *Doc
	DocumentMetadata map[string]interface{}
}

type rawDocResolution struct {
	Context          interface{}            `json:"@context,omitempty"`
	DIDDocument      json.RawMessage        `json:"didDocument,omitempty"`
	DocumentMetadata map[string]interface{} `json:"didDocumentMetadata,omitempty"`
}

// ParseDocumentResolution parses a DID resolution result of the form {"didDocument": {...}}.
func ParseDocumentResolution(data []byte) (*DocResolution, error) {
	raw := &rawDocResolution{}

	if err := json.Unmarshal(data, raw); err != nil {
		return nil, fmt.Errorf("unmarshal did resolution: %w", err)
	}

	if len(raw.DIDDocument) == 0 || string(raw.DIDDocument) == "null" {
		return nil, ErrDIDDocumentNotExist
	}

	doc, err := ParseDocument(raw.DIDDocument)
	if err != nil {
		return nil, err
	}

	return &DocResolution{
		Context:          parseContext(raw.Context),
		DIDDocument:      doc,
		DocumentMetadata: raw.DocumentMetadata,
	}, nil
}

// JSONBytes marshals the resolution result.
func (r *DocResolution) JSONBytes() ([]byte, error) {
	docBytes, err := r.DIDDocument.JSONBytes()
	if err != nil {
		return nil, err
	}

	return json.Marshal(&rawDocResolution{
		DIDDocument:      docBytes,
		DocumentMetadata: r.DocumentMetadata,
	})
}
