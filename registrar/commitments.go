package registrar

import (
	"errors"
	"sync"

	"github.com/eth2030/nameservice/core/types"
)

// ErrAlreadyReserved is returned when committing a digest whose previous
// commitment is still inside its validity window.
var ErrAlreadyReserved = errors.New("commitments: digest still reserved")

// CommitmentStore records the first phase of the commit-reveal protocol: a
// map from opaque commitment digests to the timestamp they were committed
// at. A digest is live for validity seconds after its commit; stale entries
// are never garbage-collected, they are simply treated as invalid on check
// and may be overwritten by a fresh commit.
type CommitmentStore struct {
	mu        sync.RWMutex
	validity  uint64
	clock     Clock
	committed map[types.Hash]uint64
}

// NewCommitmentStore creates a commitment store whose entries stay live for
// validity seconds.
func NewCommitmentStore(validity uint64, clock Clock) *CommitmentStore {
	return &CommitmentStore{
		validity:  validity,
		clock:     clock,
		committed: make(map[types.Hash]uint64),
	}
}

// Commit records digest at the current time. It fails with
// ErrAlreadyReserved while a previous commitment for the same digest is
// still live; once the window lapses, re-committing succeeds and resets the
// timestamp.
func (s *CommitmentStore) Commit(digest types.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if s.liveAt(digest, now) {
		return ErrAlreadyReserved
	}
	s.committed[digest] = now
	return nil
}

// Live reports whether digest has a commitment inside its validity window.
func (s *CommitmentStore) Live(digest types.Hash) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.liveAt(digest, s.clock.Now())
}

// liveAt checks liveness against an explicit timestamp. Written without
// ts+validity so a large validity cannot wrap; a timestamp from the future
// (clock skew within the allowed bounds) still counts as live.
func (s *CommitmentStore) liveAt(digest types.Hash, now uint64) bool {
	ts, ok := s.committed[digest]
	if !ok || ts == 0 {
		return false
	}
	return now <= ts || now-ts <= s.validity
}

// Remove consumes the commitment for digest. Only the registration
// controller calls this, after its own liveness and availability checks.
func (s *CommitmentStore) Remove(digest types.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.committed, digest)
}

// CommittedAt returns the stored commit timestamp for digest, live or not.
func (s *CommitmentStore) CommittedAt(digest types.Hash) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.committed[digest]
	return ts, ok
}

// Validity returns the commit validity window in seconds.
func (s *CommitmentStore) Validity() uint64 {
	return s.validity
}
