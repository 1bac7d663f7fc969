/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

const contextV011 = "https://w3id.org/did/v0.11"

// schemaV1 accepts both the legacy publicKey list and the DID Core verificationMethod list.
const schemaV1 = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id"],
  "properties": {
    "@context": {
      "oneOf": [
        {"type": "string"},
        {"type": "array", "items": {"type": "string"}}
      ]
    },
    "id": {
      "type": "string",
      "pattern": "^did:"
    },
    "publicKey": {
      "type": "array",
      "items": {"$ref": "#/definitions/publicKey"}
    },
    "verificationMethod": {
      "type": "array",
      "items": {"$ref": "#/definitions/publicKey"}
    }
  },
  "definitions": {
    "publicKey": {
      "type": "object",
      "required": ["id", "type"],
      "properties": {
        "id": {"type": "string"},
        "type": {"type": "string"},
        "controller": {"type": "string"},
        "owner": {"type": "string"},
        "publicKeyJwk": {"type": "object"},
        "publicKeyBase58": {"type": "string"},
        "publicKeyHex": {"type": "string"},
        "publicKeyMultibase": {"type": "string"},
        "publicKeyPem": {"type": "string"}
      }
    }
  }
}`
