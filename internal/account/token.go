// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package account

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/samber/oops"
)

// TokenBytes is the entropy of session and reset tokens (64 hex characters).
const TokenBytes = 32

// GenerateToken creates a random token and its hash.
// The plaintext goes to the caller; only the hash is stored.
func GenerateToken() (token, hash string, err error) {
	b := make([]byte, TokenBytes)
	if _, err = rand.Read(b); err != nil {
		return "", "", oops.Code("TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", TokenBytes).
			Wrap(err)
	}
	token = hex.EncodeToString(b)
	return token, HashToken(token), nil
}

// HashToken computes the hex SHA-256 of a token.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifyToken reports whether token hashes to hash, in constant time.
func VerifyToken(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(HashToken(token)), []byte(hash)) == 1
}
