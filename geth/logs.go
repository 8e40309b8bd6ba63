package geth

import (
	gethcommon "github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/eth2030/nameservice/core/types"
	"github.com/eth2030/nameservice/crypto"
	"github.com/eth2030/nameservice/registrar"
)

// Event signatures in canonical ABI form. Topic zero of every rendered log
// is the keccak256 of the matching signature, so standard Ethereum tooling
// can filter the registrar's event stream.
const (
	CommittedSig      = "Committed(bytes32,uint256)"
	NameRegisteredSig = "NameRegistered(bytes32,address,uint256,uint256)"
	NameRenewedSig    = "NameRenewed(bytes32,uint256,uint256)"
	FundsUnlockedSig  = "FundsUnlocked(bytes32,address,uint256,uint256)"
)

// Topic hashes of the event signatures above.
var (
	CommittedTopic      = sigTopic(CommittedSig)
	NameRegisteredTopic = sigTopic(NameRegisteredSig)
	NameRenewedTopic    = sigTopic(NameRenewedSig)
	FundsUnlockedTopic  = sigTopic(FundsUnlockedSig)
)

func sigTopic(sig string) gethcommon.Hash {
	return gethcommon.BytesToHash(crypto.Keccak256([]byte(sig)))
}

// LogFromEvent renders a registrar feed event as a go-ethereum log emitted
// by the given contract address. Indexed fields become topics; the
// remaining fields are packed into the data section as 32-byte words. The
// second return is false for event payloads that have no log form.
func LogFromEvent(contract types.Address, ev registrar.Event) (*gethtypes.Log, bool) {
	switch data := ev.Data.(type) {
	case registrar.CommittedEvent:
		return &gethtypes.Log{
			Address: ToGethAddress(contract),
			Topics:  []gethcommon.Hash{CommittedTopic, ToGethHash(data.Digest)},
			Data:    wordFromUint64(data.Time),
		}, true

	case registrar.RegisteredEvent:
		return &gethtypes.Log{
			Address: ToGethAddress(contract),
			Topics: []gethcommon.Hash{
				NameRegisteredTopic,
				ToGethHash(data.ID),
				addressTopic(data.Owner),
			},
			Data: append(wordFromUint256(data.Price), wordFromUint64(data.Expiry)...),
		}, true

	case registrar.RenewedEvent:
		return &gethtypes.Log{
			Address: ToGethAddress(contract),
			Topics:  []gethcommon.Hash{NameRenewedTopic, ToGethHash(data.ID)},
			Data:    append(wordFromUint256(data.Price), wordFromUint64(data.Expiry)...),
		}, true

	case registrar.UnlockedEvent:
		return &gethtypes.Log{
			Address: ToGethAddress(contract),
			Topics: []gethcommon.Hash{
				FundsUnlockedTopic,
				ToGethHash(data.NameDigest),
				addressTopic(data.Payer),
			},
			Data: append(wordFromUint256(data.Value), wordFromUint64(data.Maturity)...),
		}, true
	}
	return nil, false
}

// addressTopic left-pads an address into a 32-byte topic word.
func addressTopic(addr types.Address) gethcommon.Hash {
	return gethcommon.BytesToHash(addr.Bytes())
}

// wordFromUint64 encodes v as a big-endian 32-byte ABI word.
func wordFromUint64(v uint64) []byte {
	return wordFromUint256(uint256.NewInt(v))
}

// wordFromUint256 encodes v as a big-endian 32-byte ABI word.
func wordFromUint256(v *uint256.Int) []byte {
	word := v.Bytes32()
	return word[:]
}
