// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package account

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Argon2Params are the argon2id cost parameters of new hashes.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	SaltLen int
	KeyLen  uint32
}

// DefaultArgon2Params follows the OWASP recommendation.
var DefaultArgon2Params = Argon2Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

// PasswordHasher turns passwords into one-way credential hashes.
type PasswordHasher interface {
	// Hash produces a credential hash of the password.
	Hash(password string) (string, error)

	// Verify checks password against hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or an error
	// when hash cannot be parsed.
	Verify(password, hash string) (bool, error)

	// NeedsUpgrade reports whether hash should be replaced by a fresh Hash.
	NeedsUpgrade(hash string) bool
}

// Argon2idHasher hashes with argon2id in PHC string format. It also
// verifies legacy bcrypt hashes, which NeedsUpgrade then flags.
type Argon2idHasher struct {
	params Argon2Params
}

// NewArgon2idHasher creates a hasher with DefaultArgon2Params.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{params: DefaultArgon2Params}
}

// NewArgon2idHasherWithParams creates a hasher with custom cost parameters.
func NewArgon2idHasherWithParams(params Argon2Params) *Argon2idHasher {
	return &Argon2idHasher{params: params}
}

// Hash produces $argon2id$v=19$m=<mem>,t=<time>,p=<threads>$<salt>$<key>.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", oops.Code("HASH_EMPTY_PASSWORD").Errorf("password cannot be empty")
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("HASH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks password against an argon2id or bcrypt hash.
func (h *Argon2idHasher) Verify(password, encodedHash string) (bool, error) {
	if isBcrypt(encodedHash) {
		err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, oops.Code("HASH_INVALID").With("algorithm", "bcrypt").Wrap(err)
		}
	}

	phc, err := parseArgon2id(encodedHash)
	if err != nil {
		return false, err
	}
	computed := argon2.IDKey([]byte(password), phc.salt, phc.params.Time, phc.params.Memory, phc.params.Threads, phc.params.KeyLen)
	return subtle.ConstantTimeCompare(computed, phc.key) == 1, nil
}

// NeedsUpgrade reports true for bcrypt hashes and for argon2id hashes made
// with different cost parameters.
func (h *Argon2idHasher) NeedsUpgrade(encodedHash string) bool {
	phc, err := parseArgon2id(encodedHash)
	if err != nil {
		return true
	}
	return phc.params.Time != h.params.Time ||
		phc.params.Memory != h.params.Memory ||
		phc.params.Threads != h.params.Threads
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}

type argon2idHash struct {
	params Argon2Params
	salt   []byte
	key    []byte
}

func parseArgon2id(encoded string) (*argon2idHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return nil, oops.Code("HASH_INVALID").Errorf("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return nil, oops.Code("HASH_INVALID").With("algorithm", parts[1]).Errorf("unsupported hash algorithm")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, oops.Code("HASH_INVALID").Wrap(err)
	}
	if version != argon2.Version {
		return nil, oops.Code("HASH_INVALID").With("version", version).Errorf("unsupported argon2 version")
	}

	var memory, iterations, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return nil, oops.Code("HASH_INVALID").Wrap(err)
	}
	if threads == 0 || threads > 255 {
		return nil, oops.Code("HASH_INVALID").With("threads", threads).Errorf("threads out of range")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, oops.Code("HASH_INVALID").Wrap(err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, oops.Code("HASH_INVALID").Wrap(err)
	}
	if len(key) == 0 || len(key) > 1<<10 {
		return nil, oops.Code("HASH_INVALID").With("key_length", len(key)).Errorf("invalid key length")
	}

	return &argon2idHash{
		params: Argon2Params{
			Time:    iterations,
			Memory:  memory,
			Threads: uint8(threads),
			SaltLen: len(salt),
			KeyLen:  uint32(len(key)),
		},
		salt: salt,
		key:  key,
	}, nil
}
