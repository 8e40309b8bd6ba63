package registrar

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/eth2030/nameservice/core/types"
)

// claimMatured pairs Claimable with MarkClaimed the way a settled payout
// does.
func claimMatured(e *EscrowLedger, name types.Hash, payer types.Address) (*uint256.Int, []ClaimedLock, error) {
	total, released, err := e.Claimable(name, payer)
	if err != nil {
		return nil, nil, err
	}
	e.MarkClaimed(name, payer, released)
	return total, released, nil
}

func TestEscrowLedger_AddLockAppends(t *testing.T) {
	clock := newSimClock(1000)
	e := NewEscrowLedger(clock, nil)
	name := NameDigest("test")
	payer := testAddr(1)

	e.AddLock(name, payer, uint256.NewInt(100), 2000)
	e.AddLock(name, payer, uint256.NewInt(100), 2000)

	locks := e.Locks(name, payer)
	if len(locks) != 2 {
		t.Fatalf("entries = %d, want 2 (identical locks are never merged)", len(locks))
	}
	for i, lock := range locks {
		if !lock.Value.Eq(uint256.NewInt(100)) || lock.Maturity != 2000 || lock.Claimed {
			t.Errorf("entry %d = %+v, want value 100, maturity 2000, unclaimed", i, lock)
		}
	}
}

func TestEscrowLedger_BucketsSeparate(t *testing.T) {
	clock := newSimClock(1000)
	e := NewEscrowLedger(clock, nil)
	name := NameDigest("test")

	e.AddLock(name, testAddr(1), uint256.NewInt(100), 2000)
	e.AddLock(name, testAddr(2), uint256.NewInt(200), 2000)
	e.AddLock(NameDigest("other"), testAddr(1), uint256.NewInt(300), 2000)

	if got := len(e.Locks(name, testAddr(1))); got != 1 {
		t.Errorf("bucket (test, payer1) has %d entries, want 1", got)
	}
	if got := len(e.Locks(name, testAddr(2))); got != 1 {
		t.Errorf("bucket (test, payer2) has %d entries, want 1", got)
	}
}

func TestEscrowLedger_ClaimBeforeMaturity(t *testing.T) {
	clock := newSimClock(1000)
	e := NewEscrowLedger(clock, nil)
	name := NameDigest("test")
	payer := testAddr(1)

	e.AddLock(name, payer, uint256.NewInt(100), 2000)
	clock.Set(1999)

	total, released, err := claimMatured(e, name, payer)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !total.IsZero() || len(released) != 0 {
		t.Errorf("nothing should be claimable before maturity, got total=%s entries=%d", total, len(released))
	}
	if e.Locks(name, payer)[0].Claimed {
		t.Error("entry must stay unclaimed")
	}
}

func TestEscrowLedger_ClaimAtMaturity(t *testing.T) {
	clock := newSimClock(1000)
	e := NewEscrowLedger(clock, nil)
	name := NameDigest("test")
	payer := testAddr(1)

	e.AddLock(name, payer, uint256.NewInt(100), 2000)
	clock.Set(2000) // maturity <= now claims at the exact instant

	total, released, err := claimMatured(e, name, payer)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !total.Eq(uint256.NewInt(100)) {
		t.Errorf("total = %s, want 100", total)
	}
	if len(released) != 1 || released[0].Index != 0 || !released[0].Value.Eq(uint256.NewInt(100)) {
		t.Errorf("released = %+v, want one entry of 100 at index 0", released)
	}
}

func TestEscrowLedger_ClaimExactlyOnce(t *testing.T) {
	clock := newSimClock(1000)
	e := NewEscrowLedger(clock, nil)
	name := NameDigest("test")
	payer := testAddr(1)

	e.AddLock(name, payer, uint256.NewInt(100), 2000)
	clock.Set(3000)

	total, _, err := claimMatured(e, name, payer)
	if err != nil || !total.Eq(uint256.NewInt(100)) {
		t.Fatalf("first claim = %s, %v; want 100, nil", total, err)
	}
	total, released, err := claimMatured(e, name, payer)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if !total.IsZero() || len(released) != 0 {
		t.Errorf("second claim must be a no-op, got total=%s entries=%d", total, len(released))
	}
	// Claimed entries stay on the ledger as an audit trail.
	locks := e.Locks(name, payer)
	if len(locks) != 1 || !locks[0].Claimed {
		t.Errorf("entry must remain, flagged claimed: %+v", locks)
	}
}

func TestEscrowLedger_ClaimableLeavesBucketIntact(t *testing.T) {
	clock := newSimClock(1000)
	e := NewEscrowLedger(clock, nil)
	name := NameDigest("test")
	payer := testAddr(1)

	e.AddLock(name, payer, uint256.NewInt(100), 2000)
	clock.Set(3000)

	total, released, err := e.Claimable(name, payer)
	if err != nil || !total.Eq(uint256.NewInt(100)) || len(released) != 1 {
		t.Fatalf("claimable = %s (%d entries), %v; want 100 (1 entry), nil", total, len(released), err)
	}
	if e.Locks(name, payer)[0].Claimed {
		t.Error("Claimable must not flag entries")
	}

	// A repeated scan sees the same entry until MarkClaimed flips it.
	again, _, err := e.Claimable(name, payer)
	if err != nil || !again.Eq(uint256.NewInt(100)) {
		t.Fatalf("repeated claimable = %s, %v; want 100, nil", again, err)
	}
	e.MarkClaimed(name, payer, released)
	if !e.Locks(name, payer)[0].Claimed {
		t.Error("MarkClaimed must flag the returned entries")
	}
}

func TestEscrowLedger_MarkClaimedOnlyGivenEntries(t *testing.T) {
	clock := newSimClock(1000)
	e := NewEscrowLedger(clock, nil)
	name := NameDigest("test")
	payer := testAddr(1)

	e.AddLock(name, payer, uint256.NewInt(100), 2000)
	e.AddLock(name, payer, uint256.NewInt(250), 2000)

	e.MarkClaimed(name, payer, []ClaimedLock{{Index: 1}, {Index: 99}})

	locks := e.Locks(name, payer)
	if locks[0].Claimed || !locks[1].Claimed {
		t.Errorf("claimed flags = %v/%v, want false/true", locks[0].Claimed, locks[1].Claimed)
	}
}

func TestEscrowLedger_PartialClaimThenLater(t *testing.T) {
	clock := newSimClock(1000)
	e := NewEscrowLedger(clock, nil)
	name := NameDigest("test")
	payer := testAddr(1)

	e.AddLock(name, payer, uint256.NewInt(100), 2000)
	e.AddLock(name, payer, uint256.NewInt(250), 5000)

	clock.Set(2500)
	total, released, err := claimMatured(e, name, payer)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !total.Eq(uint256.NewInt(100)) || len(released) != 1 {
		t.Fatalf("first claim = %s (%d entries), want 100 (1 entry)", total, len(released))
	}

	clock.Set(5000)
	total, released, err = claimMatured(e, name, payer)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !total.Eq(uint256.NewInt(250)) || len(released) != 1 {
		t.Errorf("second claim = %s (%d entries), want 250 (1 entry)", total, len(released))
	}
	if released[0].Index != 1 {
		t.Errorf("released index = %d, want 1", released[0].Index)
	}
}

func TestEscrowLedger_ClaimEmptyBucket(t *testing.T) {
	e := NewEscrowLedger(newSimClock(1000), nil)

	total, released, err := claimMatured(e, NameDigest("test"), testAddr(1))
	if err != nil {
		t.Fatalf("claim on empty bucket: %v", err)
	}
	if !total.IsZero() || len(released) != 0 {
		t.Errorf("empty bucket claim must be a silent no-op, got %s", total)
	}
}

func TestEscrowLedger_Outstanding(t *testing.T) {
	clock := newSimClock(1000)
	e := NewEscrowLedger(clock, nil)
	name := NameDigest("test")
	payer := testAddr(1)

	e.AddLock(name, payer, uint256.NewInt(100), 2000)
	e.AddLock(name, payer, uint256.NewInt(50), 9000)

	if got := e.Outstanding(name, payer); !got.Eq(uint256.NewInt(150)) {
		t.Errorf("outstanding = %s, want 150", got)
	}
	clock.Set(2000)
	if _, _, err := claimMatured(e, name, payer); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if got := e.Outstanding(name, payer); !got.Eq(uint256.NewInt(50)) {
		t.Errorf("outstanding after claim = %s, want 50", got)
	}
}

func TestEscrowLedger_LocksReturnsCopies(t *testing.T) {
	clock := newSimClock(1000)
	e := NewEscrowLedger(clock, nil)
	name := NameDigest("test")
	payer := testAddr(1)

	e.AddLock(name, payer, uint256.NewInt(100), 2000)
	locks := e.Locks(name, payer)
	locks[0].Claimed = true
	locks[0].Value.SetUint64(0)

	clock.Set(2000)
	total, _, err := claimMatured(e, name, payer)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !total.Eq(uint256.NewInt(100)) {
		t.Errorf("mutating the Locks copy must not touch the ledger, claim = %s", total)
	}
}
