// Package geth adapts name service types and events to go-ethereum
// formats. This is the only package that imports go-ethereum directly; all
// other nameservice packages use nameservice/core/types.
package geth

import (
	gethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/nameservice/core/types"
)

// ToGethAddress converts a nameservice Address to a go-ethereum Address.
func ToGethAddress(addr types.Address) gethcommon.Address {
	return gethcommon.BytesToAddress(addr.Bytes())
}

// FromGethAddress converts a go-ethereum Address to a nameservice Address.
func FromGethAddress(addr gethcommon.Address) types.Address {
	return types.BytesToAddress(addr.Bytes())
}

// ToGethHash converts a nameservice Hash to a go-ethereum Hash.
func ToGethHash(h types.Hash) gethcommon.Hash {
	return gethcommon.BytesToHash(h.Bytes())
}

// FromGethHash converts a go-ethereum Hash to a nameservice Hash.
func FromGethHash(h gethcommon.Hash) types.Hash {
	return types.BytesToHash(h.Bytes())
}
