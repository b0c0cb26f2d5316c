// Package security wraps the credential-hashing primitive and the
// activation-code generator. The same argon2id hasher is used for account
// passwords and for one-time codes: codes are short, so hashing them
// mitigates offline brute force if the token table leaks.
package security

import "github.com/alexedwards/argon2id"

// HashParams configures the argon2id cost parameters.
type HashParams struct {
	TimeCost    uint32
	MemoryKiB   uint32
	Parallelism uint8
}

// Hasher hashes and verifies secrets with argon2id.
type Hasher struct {
	params *argon2id.Params
}

// NewHasher builds a Hasher with the given cost parameters. Salt and key
// lengths follow the library defaults.
func NewHasher(p HashParams) *Hasher {
	return &Hasher{params: &argon2id.Params{
		Memory:      p.MemoryKiB,
		Iterations:  p.TimeCost,
		Parallelism: p.Parallelism,
		SaltLength:  argon2id.DefaultParams.SaltLength,
		KeyLength:   argon2id.DefaultParams.KeyLength,
	}}
}

// Hash returns the argon2id hash of secret in the standard encoded form.
func (h *Hasher) Hash(secret string) (string, error) {
	return argon2id.CreateHash(secret, h.params)
}

// Verify reports whether secret matches hash. Malformed hashes and any
// other comparison error count as a mismatch, never as a fault: the
// caller only learns pass/fail.
func (h *Hasher) Verify(hash, secret string) bool {
	match, err := argon2id.ComparePasswordAndHash(secret, hash)
	if err != nil {
		return false
	}
	return match
}
