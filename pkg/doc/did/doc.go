/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package did models DID documents as far as DID authentication needs them: the document id
// and the ordered list of public-key descriptors, each addressed as <did>#<fragment>.
package did

import (
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"github.com/multiformats/go-multibase"
	"github.com/xeipuuv/gojsonschema"
)

const (
	// Context of the DID document.
	Context = "https://w3id.org/did/v1"
	// ContextV1 is the DID Core v1 context.
	ContextV1 = "https://www.w3.org/ns/did/v1"

	jsonldType               = "type"
	jsonldID                 = "id"
	jsonldController         = "controller"
	jsonldOwner              = "owner"
	jsonldPublicKeyBase58    = "publicKeyBase58"
	jsonldPublicKeyHex       = "publicKeyHex"
	jsonldPublicKeyPem       = "publicKeyPem"
	jsonldPublicKeyJwk       = "publicKeyJwk"
	jsonldPublicKeyMultibase = "publicKeyMultibase"

	keyIDSeparator = "#"
)

var (
	// ErrKeyNotFound is returned when a document has no public key with the requested id.
	ErrKeyNotFound = errors.New("key not found")
	// ErrInvalidDocument is returned for payloads that are not a valid DID document.
	ErrInvalidDocument = errors.New("invalid did document")

	schemaLoader = gojsonschema.NewStringLoader(schemaV1) //nolint:gochecknoglobals
	didRegex     = regexp.MustCompile(`^did:[a-z0-9]+:(:+|[:a-zA-Z0-9-_\.%]+)*[a-zA-Z0-9-_\.%]+$`)
)

// DID is parsed according to the generic syntax: https://w3c.github.io/did-core/#generic-did-syntax
type DID struct {
	Scheme           string // Scheme is always "did"
	Method           string // Method is the specific DID methods
	MethodSpecificID string // MethodSpecificID is the unique ID computed or assigned by the DID method
}

// String returns a string representation of this DID.
func (d *DID) String() string {
	return fmt.Sprintf("%s:%s:%s", d.Scheme, d.Method, d.MethodSpecificID)
}

// Parse parses the string according to the generic DID syntax.
func Parse(did string) (*DID, error) {
	if !didRegex.MatchString(did) {
		return nil, fmt.Errorf("invalid did: %s. Make sure it conforms to the generic DID syntax", did)
	}

	parts := strings.SplitN(did, ":", 3)

	return &DID{Scheme: "did", Method: parts[1], MethodSpecificID: parts[2]}, nil
}

// GetDIDFromKeyID returns the DID part of a key id of the form <did>#<fragment>.
// A key id without a fragment is returned unchanged.
func GetDIDFromKeyID(kid string) string {
	return strings.SplitN(kid, keyIDSeparator, 2)[0]
}

// Doc DID Document definition.
type Doc struct {
	Context   []string
	ID        string
	PublicKey []PublicKey
}

// PublicKey is a public-key descriptor of a DID document.
//
// Exactly one key encoding is kept: JWK holds the raw publicKeyJwk member, otherwise Value holds
// the bytes decoded from publicKeyBase58, publicKeyHex, publicKeyMultibase or publicKeyPem.
type PublicKey struct {
	ID         string
	Type       string
	Controller string

	Value []byte
	JWK   map[string]interface{}
}

type rawDoc struct {
	Context            interface{}              `json:"@context,omitempty"`
	ID                 string                   `json:"id,omitempty"`
	PublicKey          []map[string]interface{} `json:"publicKey,omitempty"`
	VerificationMethod []map[string]interface{} `json:"verificationMethod,omitempty"`
}

// ParseDocument creates an instance of Doc by reading a JSON document from bytes.
// Keys listed under publicKey come first, followed by verificationMethod entries.
func ParseDocument(data []byte) (*Doc, error) {
	raw := &rawDoc{}

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("JSON unmarshalling of did doc bytes failed: %w", err)
	} else if raw == nil {
		return nil, fmt.Errorf("%w: document payload is not provided", ErrInvalidDocument)
	}

	if err := validate(data); err != nil {
		return nil, err
	}

	context := parseContext(raw.Context)

	publicKeys, err := populatePublicKeys(context[0], append(raw.PublicKey, raw.VerificationMethod...))
	if err != nil {
		return nil, fmt.Errorf("populate public keys failed: %w", err)
	}

	return &Doc{Context: context, ID: raw.ID, PublicKey: publicKeys}, nil
}

// JSONBytes converts document to json bytes. Keys carrying a JWK are written as publicKeyJwk,
// any other key as publicKeyBase58.
func (doc *Doc) JSONBytes() ([]byte, error) {
	context := doc.Context
	if len(context) == 0 {
		context = []string{Context}
	}

	raw := &rawDoc{Context: context, ID: doc.ID, PublicKey: make([]map[string]interface{}, 0, len(doc.PublicKey))}

	for i := range doc.PublicKey {
		raw.PublicKey = append(raw.PublicKey, populateRawPublicKey(&doc.PublicKey[i]))
	}

	byteDoc, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("JSON marshalling of document failed: %w", err)
	}

	return byteDoc, nil
}

// LookupPublicKey returns the public key with the given id.
func (doc *Doc) LookupPublicKey(id string) (*PublicKey, bool) {
	return LookupPublicKey(id, doc)
}

func populatePublicKeys(context string, rawPKs []map[string]interface{}) ([]PublicKey, error) {
	publicKeys := make([]PublicKey, 0, len(rawPKs))

	controllerKey := jsonldController
	if context == contextV011 {
		controllerKey = jsonldOwner
	}

	for _, rawPK := range rawPKs {
		publicKey := PublicKey{
			ID:         stringEntry(rawPK[jsonldID]),
			Type:       stringEntry(rawPK[jsonldType]),
			Controller: stringEntry(rawPK[controllerKey]),
		}

		if err := decodePK(&publicKey, rawPK); err != nil {
			return nil, fmt.Errorf("public key %s: %w", publicKey.ID, err)
		}

		publicKeys = append(publicKeys, publicKey)
	}

	return publicKeys, nil
}

func decodePK(publicKey *PublicKey, rawPK map[string]interface{}) error {
	if jwkMap := mapEntry(rawPK[jsonldPublicKeyJwk]); jwkMap != nil {
		publicKey.JWK = jwkMap

		return nil
	}

	if v := stringEntry(rawPK[jsonldPublicKeyBase58]); v != "" {
		publicKey.Value = base58.Decode(v)

		return nil
	}

	if v := stringEntry(rawPK[jsonldPublicKeyHex]); v != "" {
		value, err := hex.DecodeString(v)
		if err != nil {
			return fmt.Errorf("decode public key hex failed: %w", err)
		}

		publicKey.Value = value

		return nil
	}

	if v := stringEntry(rawPK[jsonldPublicKeyMultibase]); v != "" {
		_, value, err := multibase.Decode(v)
		if err != nil {
			return fmt.Errorf("decode public key multibase failed: %w", err)
		}

		publicKey.Value = value

		return nil
	}

	if v := stringEntry(rawPK[jsonldPublicKeyPem]); v != "" {
		block, _ := pem.Decode([]byte(v))
		if block == nil {
			return errors.New("failed to decode PEM block containing public key")
		}

		publicKey.Value = block.Bytes

		return nil
	}

	return errors.New("public key encoding not supported")
}

func populateRawPublicKey(pk *PublicKey) map[string]interface{} {
	rawPK := map[string]interface{}{
		jsonldID:   pk.ID,
		jsonldType: pk.Type,
	}

	if pk.Controller != "" {
		rawPK[jsonldController] = pk.Controller
	}

	switch {
	case pk.JWK != nil:
		rawPK[jsonldPublicKeyJwk] = pk.JWK
	case pk.Value != nil:
		rawPK[jsonldPublicKeyBase58] = base58.Encode(pk.Value)
	}

	return rawPK
}

func parseContext(context interface{}) []string {
	switch ctx := context.(type) {
	case []interface{}:
		var result []string

		for _, v := range ctx {
			if s, ok := v.(string); ok {
				result = append(result, s)
			}
		}

		if len(result) > 0 {
			return result
		}
	case string:
		return []string{ctx}
	}

	return []string{""}
}

func validate(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validation of DID doc failed: %w", err)
	}

	if !result.Valid() {
		errMsg := "did document not valid:\n"
		for _, desc := range result.Errors() {
			errMsg += fmt.Sprintf("- %s\n", desc)
		}

		return fmt.Errorf("%w: %s", ErrInvalidDocument, errMsg)
	}

	return nil
}
