package registrar

import (
	"unicode/utf8"

	"github.com/eth2030/nameservice/core/types"
	"github.com/eth2030/nameservice/crypto"
)

// NameDigest returns the Keccak-256 digest of the name's UTF-8 bytes. Two
// distinct names produce distinct digests under the usual collision
// resistance assumption; the digest doubles as the escrow bucket key.
func NameDigest(name string) types.Hash {
	return crypto.Keccak256Hash([]byte(name))
}

// NameID returns the 256-bit identifier a name is registered under. The
// identifier is the name digest interpreted as an ownership ledger key.
func NameID(name string) types.Hash {
	return NameDigest(name)
}

// NameLength returns the length of a name in Unicode code points. Pricing
// counts code points, not bytes, so a multi-byte character costs one unit.
func NameLength(name string) int {
	return utf8.RuneCountInString(name)
}

// MakeCommitment derives the opaque commitment digest published during the
// commit phase: keccak256(nameDigest ++ owner ++ secret). The digest reveals
// nothing about the name, and binding the intended owner prevents an
// observer from replaying the reveal for themselves.
func MakeCommitment(name string, owner types.Address, secret types.Hash) types.Hash {
	digest := NameDigest(name)
	return crypto.Keccak256Hash(digest.Bytes(), owner.Bytes(), secret.Bytes())
}
