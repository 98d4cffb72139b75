package core

import (
	"crypto/sha256"
	"math/big"
)

// HashBucket maps an identifier to a slot in [0, modulo) by hashing the
// salted identifier with SHA-256 and reducing the full 256-bit digest
// modulo the slot count. The mapping is a pure function of its inputs:
// no per-process seeding, so assignments survive restarts.
//
// Salting the input decorrelates independent mappings derived from the
// same identifier (bucket choice vs. group choice).
func HashBucket(id string, salt string, modulo int) int {
	if modulo <= 0 {
		return 0
	}

	sum := sha256.Sum256([]byte(salt + id))

	// Reduce the whole digest, not a truncation: keeps the residue
	// uniform for any modulo.
	n := new(big.Int).SetBytes(sum[:])
	n.Mod(n, big.NewInt(int64(modulo)))

	return int(n.Int64())
}
