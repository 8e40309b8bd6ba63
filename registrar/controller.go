package registrar

import (
	"errors"
	"sync"

	"github.com/holiman/uint256"

	"github.com/eth2030/nameservice/core/types"
	"github.com/eth2030/nameservice/log"
	"github.com/eth2030/nameservice/metrics"
)

var (
	ErrCommitExpired       = errors.New("controller: commitment missing or expired")
	ErrNameNotAvailable    = errors.New("controller: name not available")
	ErrInsufficientPayment = errors.New("controller: attached value below price")
)

// Controller orchestrates the registration protocol: commit, reveal,
// ownership allocation, escrow locking and settlement. It is the only
// component with mutating access to every ledger, and it serializes public
// operations under one mutex so each runs as a single atomic unit; within
// that unit every precondition is re-checked immediately before the
// corresponding mutation.
//
// Settlement is net: a caller attaching value V >= price P is charged
// exactly P, which realizes the refund-of-excess policy, and the one
// transfer per call happens only after all ledger mutations.
type Controller struct {
	mu sync.Mutex

	cfg  Config
	addr types.Address // vault account holding the locked funds

	clock       Clock
	fees        *FeeSchedule
	commitments *CommitmentStore
	registrar   *Registrar
	escrow      *EscrowLedger
	vault       Vault
	feed        *EventFeed
	log         *log.Logger

	commitCount   *metrics.Counter
	registerCount *metrics.Counter
	renewCount    *metrics.Counter
	unlockCount   *metrics.Counter
	failureCount  *metrics.Counter
}

// NewController wires a controller over the given ledgers. The controller
// builds its own fee schedule and commitment store from cfg; the ownership
// ledger, escrow ledger and vault are injected. addr is the controller's
// vault account, where locked payments accumulate. feed, logger and reg may
// be nil.
//
// The controller's addr must be put on the Registrar's allow-list by the
// admin before registrations can succeed.
func NewController(cfg Config, addr types.Address, ownership *Registrar, escrow *EscrowLedger, vault Vault, clock Clock, feed *EventFeed, logger *log.Logger, reg *metrics.Registry) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	if feed == nil {
		feed = NewEventFeed(16)
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &Controller{
		cfg:           cfg,
		addr:          addr,
		clock:         clock,
		fees:          NewFeeSchedule(cfg.PricePerChar, cfg.MinNameLength),
		commitments:   NewCommitmentStore(cfg.CommitValidity, clock),
		registrar:     ownership,
		escrow:        escrow,
		vault:         vault,
		feed:          feed,
		log:           logger.Module("controller"),
		commitCount:   reg.Counter("controller_commits"),
		registerCount: reg.Counter("controller_registrations"),
		renewCount:    reg.Counter("controller_renewals"),
		unlockCount:   reg.Counter("controller_unlocks"),
		failureCount:  reg.Counter("controller_failures"),
	}
}

// Address returns the controller's vault account.
func (c *Controller) Address() types.Address {
	return c.addr
}

// Feed returns the event feed the controller publishes on.
func (c *Controller) Feed() *EventFeed {
	return c.feed
}

// Price returns the registration price for name under the controller's fee
// schedule.
func (c *Controller) Price(name string) (*uint256.Int, error) {
	return c.fees.Price(name)
}

// Available reports whether name can currently be registered.
func (c *Controller) Available(name string) bool {
	return c.registrar.Available(NameID(name))
}

// Expiry returns the recorded ownership expiry for name, if any.
func (c *Controller) Expiry(name string) (uint64, bool) {
	return c.registrar.Expiry(NameID(name))
}

// Commit publishes an opaque commitment digest, opening the reveal window.
// Callers build the digest with MakeCommitment; nothing about the name or
// the intended owner is observable from it.
func (c *Controller) Commit(caller types.Address, digest types.Hash) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.commitments.Commit(digest); err != nil {
		c.failureCount.Inc()
		c.log.Debug("commit rejected", "caller", caller, "digest", digest, "err", err)
		return err
	}
	ts, _ := c.commitments.CommittedAt(digest)
	c.commitCount.Inc()
	c.log.Info("commitment stored", "caller", caller, "digest", digest)
	c.feed.Publish(EventCommitted, CommittedEvent{Digest: digest, Time: ts})
	return nil
}

// Register reveals a committed name and allocates it to owner for the
// configured duration, locking the price in escrow until the ownership
// window matures.
//
// The consume ordering is load-bearing: the liveness, availability and
// price checks are pure validation and leave the commitment untouched on
// failure so the caller can retry, but once they pass the commitment is
// deleted before the payment is checked, so an underpaid reveal still
// consumes it.
func (c *Controller) Register(caller types.Address, name string, owner types.Address, secret types.Hash, value *uint256.Int) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A controller missing from the allow-list would only discover it
	// after consuming the commitment; no caller input can avoid that, so
	// refuse the misconfiguration up front.
	if !c.registrar.IsController(c.addr) {
		c.failureCount.Inc()
		return 0, ErrUnauthorizedCaller
	}

	digest := MakeCommitment(name, owner, secret)
	if !c.commitments.Live(digest) {
		c.failureCount.Inc()
		return 0, ErrCommitExpired
	}
	id := NameID(name)
	if !c.registrar.Available(id) {
		c.failureCount.Inc()
		return 0, ErrNameNotAvailable
	}
	price, err := c.fees.Price(name)
	if err != nil {
		c.failureCount.Inc()
		return 0, err
	}
	c.commitments.Remove(digest)

	if err := c.checkPayment(caller, value, price); err != nil {
		c.failureCount.Inc()
		return 0, err
	}

	expiry, err := c.registrar.Register(c.addr, id, owner, c.cfg.RegistrationDuration)
	if err != nil {
		c.failureCount.Inc()
		return 0, err
	}
	nameDigest := NameDigest(name)
	c.escrow.AddLock(nameDigest, caller, price, expiry)

	// Mutate-then-pay: every ledger write above precedes the transfer.
	if err := c.vault.Transfer(caller, c.addr, price); err != nil {
		return 0, err
	}

	c.registerCount.Inc()
	c.log.Info("name registered", "name", name, "id", id, "owner", owner, "caller", caller, "price", price, "expiry", expiry)
	c.feed.Publish(EventRegistered, RegisteredEvent{
		ID:         id,
		NameDigest: nameDigest,
		Owner:      owner,
		Caller:     caller,
		Price:      price,
		Expiry:     expiry,
	})
	return expiry, nil
}

// Renew extends the current registration of name by the configured
// duration, locking the price in escrow until the new expiry. The unused
// remainder of the old window is preserved.
func (c *Controller) Renew(caller types.Address, name string, value *uint256.Int) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	price, err := c.fees.Price(name)
	if err != nil {
		c.failureCount.Inc()
		return 0, err
	}
	if err := c.checkPayment(caller, value, price); err != nil {
		c.failureCount.Inc()
		return 0, err
	}

	id := NameID(name)
	expiry, err := c.registrar.Renew(c.addr, id, c.cfg.RegistrationDuration)
	if err != nil {
		c.failureCount.Inc()
		return 0, err
	}
	nameDigest := NameDigest(name)
	c.escrow.AddLock(nameDigest, caller, price, expiry)

	if err := c.vault.Transfer(caller, c.addr, price); err != nil {
		return 0, err
	}

	c.renewCount.Inc()
	c.log.Info("name renewed", "name", name, "id", id, "caller", caller, "price", price, "expiry", expiry)
	c.feed.Publish(EventRenewed, RenewedEvent{
		ID:         id,
		NameDigest: nameDigest,
		Caller:     caller,
		Price:      price,
		Expiry:     expiry,
	})
	return expiry, nil
}

// Unlock releases every matured, unclaimed escrow entry the caller holds
// for name and pays out the total. When nothing has matured the call
// succeeds with a zero total; repeating it is always safe.
func (c *Controller) Unlock(caller types.Address, name string) (*uint256.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	nameDigest := NameDigest(name)
	total, released, err := c.escrow.Claimable(nameDigest, caller)
	if err != nil {
		c.failureCount.Inc()
		return nil, err
	}
	if total.IsZero() {
		return total, nil
	}

	// Entries flip to claimed only once the payout has gone through, so a
	// failed transfer leaves them claimable on a later call. The operation
	// lock makes the pair atomic, so a paid entry can never be paid twice.
	if err := c.vault.Transfer(c.addr, caller, total); err != nil {
		c.failureCount.Inc()
		return nil, err
	}
	c.escrow.MarkClaimed(nameDigest, caller, released)

	c.unlockCount.Add(int64(len(released)))
	c.log.Info("escrow unlocked", "name", name, "caller", caller, "entries", len(released), "total", total)
	for _, lock := range released {
		c.feed.Publish(EventUnlocked, UnlockedEvent{
			NameDigest: nameDigest,
			Payer:      caller,
			Value:      lock.Value,
			Maturity:   lock.Maturity,
			Index:      lock.Index,
		})
	}
	return total, nil
}

// checkPayment enforces the payment precondition: the attached value must
// cover the price, and the caller's vault balance must cover the attached
// value so the settlement transfer cannot fail after the ledgers have been
// written.
func (c *Controller) checkPayment(caller types.Address, value, price *uint256.Int) error {
	if value == nil || value.Lt(price) {
		return ErrInsufficientPayment
	}
	if c.vault.BalanceOf(caller).Lt(value) {
		return ErrInsufficientFunds
	}
	return nil
}
