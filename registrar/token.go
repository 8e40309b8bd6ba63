package registrar

import (
	"errors"
	"sync"

	"github.com/eth2030/nameservice/core/types"
)

var (
	ErrTokenExists  = errors.New("token: identifier already minted")
	ErrTokenMissing = errors.New("token: identifier not minted")
)

// TokenLedger is the transferable-ownership capability the Registrar
// consumes: a mapping from name identifier to current owner, with mint and
// burn. Generic token mechanics (transfers, approvals) live outside this
// module; the Registrar only mints on registration and burns a stale token
// when an expired name is re-registered.
type TokenLedger interface {
	OwnerOf(id types.Hash) (types.Address, bool)
	Mint(id types.Hash, owner types.Address) error
	Burn(id types.Hash) error
}

// OwnershipToken is an in-memory TokenLedger, sufficient for wiring the
// Registrar in-process and for tests. All methods are safe for concurrent
// use.
type OwnershipToken struct {
	mu     sync.RWMutex
	owners map[types.Hash]types.Address
}

// NewOwnershipToken creates an empty ownership token ledger.
func NewOwnershipToken() *OwnershipToken {
	return &OwnershipToken{
		owners: make(map[types.Hash]types.Address),
	}
}

// OwnerOf returns the current owner of id, if minted.
func (t *OwnershipToken) OwnerOf(id types.Hash) (types.Address, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	owner, ok := t.owners[id]
	return owner, ok
}

// Mint assigns id to owner. It fails with ErrTokenExists if id is already
// minted; the holder must be burned first.
func (t *OwnershipToken) Mint(id types.Hash, owner types.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.owners[id]; ok {
		return ErrTokenExists
	}
	t.owners[id] = owner
	return nil
}

// Burn revokes the token for id.
func (t *OwnershipToken) Burn(id types.Hash) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.owners[id]; !ok {
		return ErrTokenMissing
	}
	delete(t.owners, id)
	return nil
}
