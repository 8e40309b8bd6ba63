package registrar

import (
	"errors"
	"math/bits"
	"sync"

	"github.com/eth2030/nameservice/core/types"
	"github.com/eth2030/nameservice/log"
)

var (
	ErrUnauthorizedCaller = errors.New("registrar: caller is not an authorized controller")
	ErrNotAdmin           = errors.New("registrar: caller is not the admin")
	ErrNotAvailable       = errors.New("registrar: identifier not available")
	ErrNameExpired        = errors.New("registrar: registration has expired")
	ErrZeroDuration       = errors.New("registrar: expiry would not advance")
)

// Registrar is the ownership ledger: it tracks which identifier is owned
// until when, delegating the owner mapping itself to a TokenLedger. Mutation
// is restricted to controllers on an allow-list maintained by the admin
// address. All methods are safe for concurrent use.
type Registrar struct {
	mu          sync.RWMutex
	clock       Clock
	token       TokenLedger
	admin       types.Address
	controllers map[types.Address]bool
	expiries    map[types.Hash]uint64
	feed        *EventFeed
	log         *log.Logger
}

// NewRegistrar creates an ownership ledger administered by admin. The feed
// may be nil, in which case ledger events are not published.
func NewRegistrar(admin types.Address, token TokenLedger, clock Clock, feed *EventFeed, logger *log.Logger) *Registrar {
	if logger == nil {
		logger = log.Default()
	}
	return &Registrar{
		clock:       clock,
		token:       token,
		admin:       admin,
		controllers: make(map[types.Address]bool),
		expiries:    make(map[types.Hash]uint64),
		feed:        feed,
		log:         logger.Module("registrar"),
	}
}

// AddController puts addr on the allow-list of callers that may allocate
// and renew names. Only the admin may call this.
func (r *Registrar) AddController(caller, addr types.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if caller != r.admin {
		return ErrNotAdmin
	}
	r.controllers[addr] = true
	r.log.Info("controller added", "controller", addr)
	return nil
}

// RemoveController removes addr from the allow-list. Only the admin may
// call this.
func (r *Registrar) RemoveController(caller, addr types.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if caller != r.admin {
		return ErrNotAdmin
	}
	delete(r.controllers, addr)
	r.log.Info("controller removed", "controller", addr)
	return nil
}

// IsController reports whether addr is on the controller allow-list.
func (r *Registrar) IsController(addr types.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.controllers[addr]
}

// Available reports whether id can be newly allocated: its recorded expiry
// is strictly in the past, or it was never registered.
func (r *Registrar) Available(id types.Hash) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.availableAt(id, r.clock.Now())
}

func (r *Registrar) availableAt(id types.Hash, now uint64) bool {
	return r.expiries[id] < now
}

// Expiry returns the recorded expiry for id, if any.
func (r *Registrar) Expiry(id types.Hash) (uint64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exp, ok := r.expiries[id]
	return exp, ok
}

// OwnerOf returns the current token owner of id, if minted.
func (r *Registrar) OwnerOf(id types.Hash) (types.Address, bool) {
	return r.token.OwnerOf(id)
}

// Register allocates id to owner for duration seconds from now and returns
// the new expiry. The availability check is repeated here, inside the
// ledger's own critical section, even though the controller checks it
// first. A token left over from a lapsed registration is burned before the
// new one is minted.
func (r *Registrar) Register(caller types.Address, id types.Hash, owner types.Address, duration uint64) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.controllers[caller] {
		return 0, ErrUnauthorizedCaller
	}
	now := r.clock.Now()
	if !r.availableAt(id, now) {
		return 0, ErrNotAvailable
	}
	expiry, carry := bits.Add64(now, duration, 0)
	if carry != 0 || expiry <= now {
		return 0, ErrZeroDuration
	}

	if _, held := r.token.OwnerOf(id); held {
		if err := r.token.Burn(id); err != nil {
			return 0, err
		}
	}
	if err := r.token.Mint(id, owner); err != nil {
		return 0, err
	}
	r.expiries[id] = expiry

	r.log.Info("name registered", "id", id, "owner", owner, "expiry", expiry)
	if r.feed != nil {
		r.feed.Publish(EventNameRegistered, NameRegisteredEvent{ID: id, Owner: owner, Expiry: expiry})
	}
	return expiry, nil
}

// Renew extends the registration of id by duration seconds and returns the
// new expiry. The extension is added to the current expiry, not to now, so
// renewing early never forfeits the remaining time.
func (r *Registrar) Renew(caller types.Address, id types.Hash, duration uint64) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.controllers[caller] {
		return 0, ErrUnauthorizedCaller
	}
	current, ok := r.expiries[id]
	if !ok || current < r.clock.Now() {
		return 0, ErrNameExpired
	}
	expiry, carry := bits.Add64(current, duration, 0)
	if carry != 0 || expiry <= current {
		return 0, ErrZeroDuration
	}
	r.expiries[id] = expiry

	r.log.Info("name renewed", "id", id, "expiry", expiry)
	if r.feed != nil {
		r.feed.Publish(EventNameRenewed, NameRenewedEvent{ID: id, Expiry: expiry})
	}
	return expiry, nil
}
