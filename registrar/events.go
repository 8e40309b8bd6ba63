package registrar

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/holiman/uint256"

	"github.com/eth2030/nameservice/core/types"
)

// EventType identifies the kind of event published on the feed.
type EventType string

// Event types emitted by the protocol, one per observable state transition.
const (
	EventCommitted      EventType = "commitments.committed"
	EventNameRegistered EventType = "registrar.nameRegistered"
	EventNameRenewed    EventType = "registrar.nameRenewed"
	EventRegistered     EventType = "controller.registered"
	EventRenewed        EventType = "controller.renewed"
	EventUnlocked       EventType = "escrow.unlocked"
)

// CommittedEvent is emitted when a commitment digest is stored.
type CommittedEvent struct {
	Digest types.Hash
	Time   uint64
}

// NameRegisteredEvent is the ownership ledger's record of a new allocation.
type NameRegisteredEvent struct {
	ID     types.Hash
	Owner  types.Address
	Expiry uint64
}

// NameRenewedEvent is the ownership ledger's record of an extension.
type NameRenewedEvent struct {
	ID     types.Hash
	Expiry uint64
}

// RegisteredEvent is the controller's record of a completed registration,
// including the payer and the exact price charged.
type RegisteredEvent struct {
	ID         types.Hash
	NameDigest types.Hash
	Owner      types.Address
	Caller     types.Address
	Price      *uint256.Int
	Expiry     uint64
}

// RenewedEvent is the controller's record of a completed renewal.
type RenewedEvent struct {
	ID         types.Hash
	NameDigest types.Hash
	Caller     types.Address
	Price      *uint256.Int
	Expiry     uint64
}

// UnlockedEvent is emitted once per escrow entry released by a claim.
type UnlockedEvent struct {
	NameDigest types.Hash
	Payer      types.Address
	Value      *uint256.Int
	Maturity   uint64
	Index      int
}

// Event is a message published on the event feed.
type Event struct {
	Type      EventType
	Data      interface{}
	Timestamp time.Time
}

// Subscription represents a subscription to one or more event types on the
// EventFeed.
type Subscription struct {
	id     uint64
	types  map[EventType]struct{}
	ch     chan Event
	feed   *EventFeed
	closed atomic.Bool
}

// Chan returns a read-only channel that receives events matching the
// subscription's event types.
func (s *Subscription) Chan() <-chan Event {
	return s.ch
}

// Unsubscribe removes this subscription from the feed and closes the
// underlying channel. It is safe to call multiple times.
func (s *Subscription) Unsubscribe() {
	if s.feed != nil {
		s.feed.Unsubscribe(s)
	}
}

// EventFeed provides a publish/subscribe channel for the protocol's
// observable log entries. All methods are safe for concurrent use.
type EventFeed struct {
	mu         sync.RWMutex
	subs       map[uint64]*Subscription
	nextID     uint64
	bufferSize int
}

// NewEventFeed creates a feed whose subscription channels hold bufferSize
// pending events; use 0 for unbuffered channels.
func NewEventFeed(bufferSize int) *EventFeed {
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &EventFeed{
		subs:       make(map[uint64]*Subscription),
		bufferSize: bufferSize,
	}
}

// Subscribe creates a subscription that receives events matching any of the
// given types.
func (f *EventFeed) Subscribe(eventTypes ...EventType) *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	typeSet := make(map[EventType]struct{}, len(eventTypes))
	for _, t := range eventTypes {
		typeSet[t] = struct{}{}
	}

	sub := &Subscription{
		id:    f.nextID,
		types: typeSet,
		ch:    make(chan Event, f.bufferSize),
		feed:  f,
	}
	f.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes the given subscription from the feed and closes its
// channel. Safe to call multiple times or with nil.
func (f *EventFeed) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	if !sub.closed.CompareAndSwap(false, true) {
		return
	}

	f.mu.Lock()
	delete(f.subs, sub.id)
	f.mu.Unlock()

	close(sub.ch)
}

// Publish sends an event to every matching subscriber without blocking. If
// a subscriber's channel is full the event is dropped for that subscriber,
// so a slow consumer cannot stall a ledger operation.
func (f *EventFeed) Publish(eventType EventType, data interface{}) {
	event := Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, sub := range f.subs {
		if sub.closed.Load() {
			continue
		}
		if _, ok := sub.types[eventType]; ok {
			select {
			case sub.ch <- event:
			default:
			}
		}
	}
}

// SubscriberCount returns the number of active subscriptions for the given
// event type.
func (f *EventFeed) SubscriberCount(eventType EventType) int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := 0
	for _, sub := range f.subs {
		if _, ok := sub.types[eventType]; ok {
			n++
		}
	}
	return n
}
