// Package bus implements the in-process Event Bus from spec.md §4.2: typed
// broadcast with per-subscriber filters and bounded queues, grounded on the
// teacher's internal/pipeline/bus/memory_bus.go channel-of-channels fan-out.
package bus

import (
	"sync"

	"github.com/audiocontrol/acrd/internal/metrics"
	"github.com/audiocontrol/acrd/internal/model"
)

// DefaultQueueCapacity is the default per-subscriber queue size (spec.md §4.2).
const DefaultQueueCapacity = 256

// Envelope pairs a PlayerEvent with the controller id that produced it.
type Envelope struct {
	PlayerID string
	Event    model.PlayerEvent
}

// Filter restricts which envelopes a subscription receives. A nil/empty
// set for either field means "any".
type Filter struct {
	PlayerIDs  map[string]struct{}
	EventTypes map[model.EventType]struct{}
}

func (f Filter) matches(env Envelope) bool {
	if len(f.PlayerIDs) > 0 {
		if _, ok := f.PlayerIDs[env.PlayerID]; !ok {
			return false
		}
	}
	if len(f.EventTypes) > 0 {
		if _, ok := f.EventTypes[env.Event.Type]; !ok {
			return false
		}
	}
	return true
}

// laggedMarker is kept in a subscriber's queue in place of the oldest
// dropped event, per spec.md §4.2.
type laggedMarker struct {
	Count int
}

// Subscription is a live subscriber handle. Delivered items queue up in an
// internal slice bounded by capacity, and a forwarder goroutine relays them
// one at a time to the channel C() exposes, so Publish itself never blocks
// on a slow consumer.
type Subscription struct {
	id     uint64
	filter Filter
	bus    *Bus

	mu       sync.Mutex
	queue    []any
	capacity int

	wake chan struct{}
	done chan struct{}
	out  chan any
}

func newSubscription(id uint64, filter Filter, b *Bus, capacity int) *Subscription {
	s := &Subscription{
		id:       id,
		filter:   filter,
		bus:      b,
		capacity: capacity,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		out:      make(chan any),
	}
	go s.forward()
	return s
}

// C returns the channel of delivered items: each value is either an
// Envelope or a laggedMarker (callers type-switch).
func (s *Subscription) C() <-chan any {
	return s.out
}

// Close unregisters the subscription.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s)
}

// forward relays queued items to out one at a time, blocking only on an
// empty queue or a full-and-unread out channel, never on Publish.
func (s *Subscription) forward() {
	defer close(s.out)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
			case <-s.done:
				return
			}
			s.mu.Lock()
		}
		item := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- item:
		case <-s.done:
			return
		}
	}
}

func (s *Subscription) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// push enqueues env. On overflow it keeps a single Lagged marker at the
// front of the queue (spec.md §4.2) whose count is the number of events
// this subscriber has lost, and env is still appended: the first overflow
// drops the two oldest pending envelopes (one slot for the marker, one for
// env), and each later overflow drops the oldest envelope queued behind the
// marker. With a capacity of 1 the marker fills the queue, so env itself is
// dropped and counted.
func (s *Subscription) push(env Envelope, topic string) {
	s.mu.Lock()
	if len(s.queue) < s.capacity {
		s.queue = append(s.queue, env)
		s.mu.Unlock()
		s.signal()
		return
	}

	lm, lagged := s.queue[0].(laggedMarker)
	if !lagged {
		lm.Count = 1 // the oldest pending envelope gives up its slot to the marker
	}
	lm.Count++
	if len(s.queue) > 1 {
		// evict the oldest envelope still queued behind the marker, so env fits
		s.queue = append(s.queue[:1], s.queue[2:]...)
		s.queue = append(s.queue, env)
	}
	s.queue[0] = lm
	s.mu.Unlock()

	metrics.BusDroppedTotal.WithLabelValues(topic).Inc()
	s.signal()
}

// Bus is the process-wide typed event broadcaster.
type Bus struct {
	mu       sync.RWMutex
	subs     map[uint64]*Subscription
	nextID   uint64
	queueCap int
}

// New constructs a Bus with the given per-subscriber queue capacity (0 uses
// DefaultQueueCapacity).
func New(queueCap int) *Bus {
	if queueCap <= 0 {
		queueCap = DefaultQueueCapacity
	}
	return &Bus{
		subs:     make(map[uint64]*Subscription),
		queueCap: queueCap,
	}
}

// Subscribe registers a new subscription matching filter.
func (b *Bus) Subscribe(filter Filter) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := newSubscription(b.nextID, filter, b, b.queueCap)
	b.subs[sub.id] = sub
	return sub
}

func (b *Bus) unsubscribe(s *Subscription) {
	b.mu.Lock()
	_, ok := b.subs[s.id]
	if ok {
		delete(b.subs, s.id)
	}
	b.mu.Unlock()
	if ok {
		close(s.done)
	}
}

// Publish broadcasts an event to every matching subscriber, non-blocking.
func (b *Bus) Publish(playerID string, event model.PlayerEvent) {
	env := Envelope{PlayerID: playerID, Event: event}

	b.mu.RLock()
	targets := make([]*Subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.filter.matches(env) {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range targets {
		s.push(env, playerID)
	}
}

// LaggedCount reports the drop count carried by v, when v is a lagged
// marker produced by this package.
func LaggedCount(v any) (int, bool) {
	lm, ok := v.(laggedMarker)
	if !ok {
		return 0, false
	}
	return lm.Count, true
}
