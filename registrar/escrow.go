package registrar

import (
	"errors"
	"sync"

	"github.com/holiman/uint256"

	"github.com/eth2030/nameservice/core/types"
	"github.com/eth2030/nameservice/log"
)

// ErrClaimOverflow is returned when the summed value of matured entries
// would not fit in 256 bits. No entry is marked claimed in that case.
var ErrClaimOverflow = errors.New("escrow: claim total overflows")

// LockEntry is one deferred payment: an amount locked until its maturity
// timestamp, claimable exactly once.
type LockEntry struct {
	Value    *uint256.Int
	Maturity uint64
	Claimed  bool
}

// lockKey buckets entries by (name digest, payer).
type lockKey struct {
	name  types.Hash
	payer types.Address
}

// ClaimedLock describes one entry released by a claim, for event emission.
type ClaimedLock struct {
	Index    int
	Value    *uint256.Int
	Maturity uint64
}

// EscrowLedger records the locked payments created by registrations and
// renewals. Entries are appended per (name, payer) bucket and never merged
// or deleted; a claim only flips the Claimed flag, so the bucket doubles as
// an audit trail of every payment event.
type EscrowLedger struct {
	mu    sync.Mutex
	clock Clock
	locks map[lockKey][]*LockEntry
	log   *log.Logger
}

// NewEscrowLedger creates an empty escrow ledger.
func NewEscrowLedger(clock Clock, logger *log.Logger) *EscrowLedger {
	if logger == nil {
		logger = log.Default()
	}
	return &EscrowLedger{
		clock: clock,
		locks: make(map[lockKey][]*LockEntry),
		log:   logger.Module("escrow"),
	}
}

// AddLock appends a new unclaimed entry of value maturing at maturity to
// the (name, payer) bucket. Each registration or renewal produces its own
// entry.
func (e *EscrowLedger) AddLock(name types.Hash, payer types.Address, value *uint256.Int, maturity uint64) {
	key := lockKey{name: name, payer: payer}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.locks[key] = append(e.locks[key], &LockEntry{
		Value:    new(uint256.Int).Set(value),
		Maturity: maturity,
	})
	e.log.Debug("lock added", "name", name, "payer", payer, "value", value, "maturity", maturity)
}

// Claimable scans the (name, payer) bucket and returns the summed value of
// every matured, unclaimed entry together with a record per entry. The scan
// does not mutate the bucket: entries are flipped separately via MarkClaimed
// once the payout has gone through, so a failed transfer leaves every entry
// claimable. Entries that have not matured are left for a later call; when
// nothing is claimable the total is zero and the call succeeds.
func (e *EscrowLedger) Claimable(name types.Hash, payer types.Address) (*uint256.Int, []ClaimedLock, error) {
	key := lockKey{name: name, payer: payer}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	total := new(uint256.Int)
	var released []ClaimedLock

	for i, entry := range e.locks[key] {
		if entry.Claimed || entry.Maturity > now {
			continue
		}
		sum, overflow := new(uint256.Int).AddOverflow(total, entry.Value)
		if overflow {
			return nil, nil, ErrClaimOverflow
		}
		total = sum
		released = append(released, ClaimedLock{
			Index:    i,
			Value:    new(uint256.Int).Set(entry.Value),
			Maturity: entry.Maturity,
		})
	}
	return total, released, nil
}

// MarkClaimed permanently flags the given entries of the (name, payer)
// bucket, as returned by a prior Claimable. Flagged entries are inert:
// Claimable and Outstanding skip them forever after.
func (e *EscrowLedger) MarkClaimed(name types.Hash, payer types.Address, released []ClaimedLock) {
	key := lockKey{name: name, payer: payer}

	e.mu.Lock()
	defer e.mu.Unlock()

	entries := e.locks[key]
	for _, lock := range released {
		if lock.Index < 0 || lock.Index >= len(entries) {
			continue
		}
		entries[lock.Index].Claimed = true
	}
	if len(released) > 0 {
		e.log.Info("locks claimed", "name", name, "payer", payer, "entries", len(released))
	}
}

// Locks returns a copy of the (name, payer) bucket in append order.
func (e *EscrowLedger) Locks(name types.Hash, payer types.Address) []LockEntry {
	key := lockKey{name: name, payer: payer}

	e.mu.Lock()
	defer e.mu.Unlock()

	entries := e.locks[key]
	out := make([]LockEntry, len(entries))
	for i, entry := range entries {
		out[i] = LockEntry{
			Value:    new(uint256.Int).Set(entry.Value),
			Maturity: entry.Maturity,
			Claimed:  entry.Claimed,
		}
	}
	return out
}

// Outstanding returns the summed value of unclaimed entries in the
// (name, payer) bucket, matured or not.
func (e *EscrowLedger) Outstanding(name types.Hash, payer types.Address) *uint256.Int {
	key := lockKey{name: name, payer: payer}

	e.mu.Lock()
	defer e.mu.Unlock()

	total := new(uint256.Int)
	for _, entry := range e.locks[key] {
		if !entry.Claimed {
			total.Add(total, entry.Value)
		}
	}
	return total
}
