// Package password hashes account passwords with argon2id and grades new ones.
package password

import (
	"os"
	"strconv"

	"github.com/alexedwards/argon2id"
)

// Params is the argon2id cost policy. Memory is in KiB.
type Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func (p Params) argon() *argon2id.Params {
	return &argon2id.Params{
		Memory:      p.Memory,
		Iterations:  p.Iterations,
		Parallelism: p.Parallelism,
		SaltLength:  p.SaltLength,
		KeyLength:   p.KeyLength,
	}
}

// weaker reports whether any cost in p is below the matching one in than.
func (p Params) weaker(than Params) bool {
	return p.Memory < than.Memory ||
		p.Iterations < than.Iterations ||
		p.Parallelism < than.Parallelism ||
		p.SaltLength < than.SaltLength ||
		p.KeyLength < than.KeyLength
}

// LoadParamsFromEnv reads ARGON2_MEMORY, ARGON2_ITER and ARGON2_PAR over a
// 128 MiB, t=3, p=1 baseline.
func LoadParamsFromEnv() Params {
	return Params{
		Memory:      uint32(envUint("ARGON2_MEMORY", 131072, 32)),
		Iterations:  uint32(envUint("ARGON2_ITER", 3, 32)),
		Parallelism: uint8(envUint("ARGON2_PAR", 1, 8)),
		SaltLength:  16,
		KeyLength:   32,
	}
}

func envUint(key string, def uint64, bits int) uint64 {
	n, err := strconv.ParseUint(os.Getenv(key), 10, bits)
	if err != nil {
		return def
	}
	return n
}

var policy = LoadParamsFromEnv()

// UseParams swaps the active policy. Tests use it for cheap hashes.
func UseParams(p Params) { policy = p }

// Hash returns a PHC-encoded argon2id hash.
func Hash(plain string) (string, error) {
	return argon2id.CreateHash(plain, policy.argon())
}

// Verify compares plain against phc. needsRehash is only meaningful when ok.
func Verify(plain, phc string) (ok, needsRehash bool, err error) {
	ok, err = argon2id.ComparePasswordAndHash(plain, phc)
	if err != nil || !ok {
		return ok, false, err
	}
	return true, NeedsRehash(phc), nil
}

// NeedsRehash is true when phc was produced under a cheaper policy, or
// cannot be decoded at all.
func NeedsRehash(phc string) bool {
	stored, _, _, err := argon2id.DecodeHash(phc)
	if err != nil {
		return true
	}
	return Params{
		Memory:      stored.Memory,
		Iterations:  stored.Iterations,
		Parallelism: stored.Parallelism,
		SaltLength:  stored.SaltLength,
		KeyLength:   stored.KeyLength,
	}.weaker(policy)
}
