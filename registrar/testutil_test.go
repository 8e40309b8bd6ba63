package registrar

import (
	"sync"

	"github.com/holiman/uint256"

	"github.com/eth2030/nameservice/core/types"
)

// simClock is a settable Clock standing in for the block timestamp.
type simClock struct {
	mu  sync.Mutex
	now uint64
}

func newSimClock(start uint64) *simClock {
	return &simClock{now: start}
}

func (c *simClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *simClock) Set(now uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *simClock) Advance(d uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
}

// testAddr returns an address with the given seed byte.
func testAddr(seed byte) types.Address {
	var a types.Address
	a[types.AddressLength-1] = seed
	return a
}

// testSecret returns a secret with the given seed byte.
func testSecret(seed byte) types.Hash {
	var h types.Hash
	h[0] = seed
	return h
}

func ether(n uint64) *uint256.Int {
	wei, _ := new(uint256.Int).MulOverflow(uint256.NewInt(n), uint256.NewInt(1_000_000_000_000_000_000))
	return wei
}

// testEnv wires a full protocol stack over a simulated clock. The
// controller is pre-authorized on the registrar's allow-list and every
// party from fundedAccounts starts with 10 ether in the vault.
type testEnv struct {
	clock      *simClock
	admin      types.Address
	controller *Controller
	registrar  *Registrar
	escrow     *EscrowLedger
	vault      *MemoryVault
	token      *OwnershipToken
}

func newTestEnv(cfg Config, start uint64, fundedAccounts ...types.Address) *testEnv {
	clock := newSimClock(start)
	admin := testAddr(0xad)
	controllerAddr := testAddr(0xcc)

	token := NewOwnershipToken()
	feed := NewEventFeed(64)
	reg := NewRegistrar(admin, token, clock, feed, nil)
	escrow := NewEscrowLedger(clock, nil)
	vault := NewMemoryVault()
	ctrl := NewController(cfg, controllerAddr, reg, escrow, vault, clock, feed, nil, nil)

	if err := reg.AddController(admin, controllerAddr); err != nil {
		panic(err)
	}
	for _, acct := range fundedAccounts {
		if err := vault.Credit(acct, ether(10)); err != nil {
			panic(err)
		}
	}

	return &testEnv{
		clock:      clock,
		admin:      admin,
		controller: ctrl,
		registrar:  reg,
		escrow:     escrow,
		vault:      vault,
		token:      token,
	}
}

// commitAndRegister runs the two protocol phases for name in one step,
// attaching exactly the price.
func (env *testEnv) commitAndRegister(caller, owner types.Address, name string, secret types.Hash) (uint64, error) {
	digest := MakeCommitment(name, owner, secret)
	if err := env.controller.Commit(caller, digest); err != nil {
		return 0, err
	}
	price, err := env.controller.Price(name)
	if err != nil {
		return 0, err
	}
	return env.controller.Register(caller, name, owner, secret, price)
}
