package registrar

import (
	"errors"
	"sync"

	"github.com/holiman/uint256"

	"github.com/eth2030/nameservice/core/types"
)

var (
	ErrInsufficientFunds = errors.New("vault: insufficient balance")
	ErrBalanceOverflow   = errors.New("vault: balance overflow")
)

// Vault is the value-transfer substrate the controller settles against:
// a balance per address, credited externally and moved by transfers. The
// controller's own address holds the locked escrow funds.
type Vault interface {
	BalanceOf(addr types.Address) *uint256.Int
	Credit(addr types.Address, amount *uint256.Int) error
	Transfer(from, to types.Address, amount *uint256.Int) error
}

// MemoryVault is an in-memory Vault. All methods are safe for concurrent
// use.
type MemoryVault struct {
	mu       sync.RWMutex
	balances map[types.Address]*uint256.Int
}

// NewMemoryVault creates a vault with no balances.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{
		balances: make(map[types.Address]*uint256.Int),
	}
}

// BalanceOf returns a copy of addr's balance.
func (v *MemoryVault) BalanceOf(addr types.Address) *uint256.Int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if bal, ok := v.balances[addr]; ok {
		return new(uint256.Int).Set(bal)
	}
	return new(uint256.Int)
}

// Credit adds amount to addr's balance.
func (v *MemoryVault) Credit(addr types.Address, amount *uint256.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	bal, ok := v.balances[addr]
	if !ok {
		bal = new(uint256.Int)
		v.balances[addr] = bal
	}
	sum, overflow := new(uint256.Int).AddOverflow(bal, amount)
	if overflow {
		return ErrBalanceOverflow
	}
	bal.Set(sum)
	return nil
}

// Transfer moves amount from one address to another. It fails with
// ErrInsufficientFunds without touching either balance if from cannot
// cover the amount.
func (v *MemoryVault) Transfer(from, to types.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	src, ok := v.balances[from]
	if !ok || src.Lt(amount) {
		return ErrInsufficientFunds
	}
	dst, ok := v.balances[to]
	if !ok {
		dst = new(uint256.Int)
		v.balances[to] = dst
	}
	sum, overflow := new(uint256.Int).AddOverflow(dst, amount)
	if overflow {
		return ErrBalanceOverflow
	}
	src.Sub(src, amount)
	dst.Set(sum)
	return nil
}
