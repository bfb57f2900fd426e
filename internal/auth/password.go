// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth hashes and verifies account passwords. New hashes use
// argon2id; bcrypt hashes imported from the previous site are still
// accepted and flagged for rehash.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidHash is returned when a stored hash has an unknown format.
var ErrInvalidHash = errors.New("invalid password hash")

// Current argon2id cost (m=19456 KiB, t=2, p=1).
const (
	argonTime    = 2
	argonMemory  = 19 * 1024
	argonThreads = 1
	argonKeyLen  = 32
	argonSaltLen = 16
)

var b64 = base64.RawStdEncoding

// argonHash is a decoded PHC string: $argon2id$v=19$m=..,t=..,p=..$salt$key
type argonHash struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func (h argonHash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.memory, h.time, h.threads, b64.EncodeToString(h.salt), b64.EncodeToString(h.key))
}

func (h argonHash) current() bool {
	return h.memory == argonMemory && h.time == argonTime && h.threads == argonThreads
}

func decodeArgon(encoded string) (argonHash, error) {
	var h argonHash
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" {
		return h, fmt.Errorf("%w: want 6 fields", ErrInvalidHash)
	}
	if fields[1] != "argon2id" {
		return h, fmt.Errorf("%w: algorithm %q", ErrInvalidHash, fields[1])
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return h, fmt.Errorf("%w: version %q", ErrInvalidHash, fields[2])
	}
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &h.memory, &h.time, &h.threads); err != nil {
		return h, fmt.Errorf("%w: parameters %q", ErrInvalidHash, fields[3])
	}

	var err error
	if h.salt, err = b64.DecodeString(fields[4]); err != nil {
		return h, fmt.Errorf("%w: salt: %v", ErrInvalidHash, err)
	}
	if h.key, err = b64.DecodeString(fields[5]); err != nil || len(h.key) == 0 {
		return h, fmt.Errorf("%w: key", ErrInvalidHash)
	}
	return h, nil
}

// HashPassword returns an argon2id PHC string for password.
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	h := argonHash{memory: argonMemory, time: argonTime, threads: argonThreads, salt: salt}
	h.key = argon2.IDKey([]byte(password), h.salt, h.time, h.memory, h.threads, argonKeyLen)
	return h.String(), nil
}

// isBcrypt matches the $2a$, $2b$ and $2y$ prefixes. PHP's password_hash writes $2y$.
func isBcrypt(encoded string) bool {
	return len(encoded) > 4 && encoded[0] == '$' && encoded[1] == '2' &&
		strings.ContainsRune("aby", rune(encoded[2])) && encoded[3] == '$'
}

// CheckPassword reports whether password matches an argon2id or bcrypt hash.
// A malformed hash yields an error wrapping ErrInvalidHash.
func CheckPassword(password, encoded string) (bool, error) {
	if isBcrypt(encoded) {
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
		}
		return true, nil
	}

	h, err := decodeArgon(encoded)
	if err != nil {
		return false, err
	}
	key := argon2.IDKey([]byte(password), h.salt, h.time, h.memory, h.threads, uint32(len(h.key)))
	return subtle.ConstantTimeCompare(key, h.key) == 1, nil
}

// NeedsRehash reports whether a stored hash should be replaced after a
// successful sign-in: bcrypt hashes and argon2id hashes with older costs.
func NeedsRehash(encoded string) bool {
	h, err := decodeArgon(encoded)
	return err != nil || !h.current()
}
