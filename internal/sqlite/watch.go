// This file implements continuous queries. Subscriptions register under
// the collections their query reads; committed mutations signal them,
// and a per-subscription worker recomputes the full result set and
// delivers it when it differs from the previous delivery.
package sqlite

import (
	"reflect"
	"sync"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// Compile-time interface check: subscription must implement Subscription.
var _ types.Subscription = (*subscription)(nil)

// watchRegistry indexes live subscriptions by the collections they
// depend on. It is only ever touched while holding Backend.mu.
type watchRegistry struct {
	subs map[string][]*subscription
}

func newWatchRegistry() watchRegistry {
	return watchRegistry{subs: make(map[string][]*subscription)}
}

func (r *watchRegistry) add(s *subscription, collections ...string) {
	for _, c := range collections {
		r.subs[c] = append(r.subs[c], s)
	}
}

func (r *watchRegistry) remove(s *subscription) {
	for c, list := range r.subs {
		kept := list[:0]
		for _, sub := range list {
			if sub != s {
				kept = append(kept, sub)
			}
		}
		r.subs[c] = kept
	}
}

// cancelAll cancels every registered subscription once, even those
// registered under several collections.
func (r *watchRegistry) cancelAll() {
	cancelled := make(map[*subscription]bool)
	for _, list := range r.subs {
		for _, s := range list {
			if !cancelled[s] {
				cancelled[s] = true
				s.cancelInternal()
			}
		}
	}
}

// Subscribe registers a continuous query and returns its handle. The
// subscription is registered before the initial snapshot is computed,
// both under the write lock, so every mutation after the snapshot
// wakes it. The initial result set is delivered immediately.
func (b *Backend) Subscribe(q types.Query) (types.Subscription, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	s := newSubscription(b, q)
	b.watchers.add(s, queryCollections(q.Kind)...)

	s.transition(types.SubscriptionComputing)
	initial, err := b.computeQueryLocked(q)
	if err != nil {
		b.watchers.remove(s)
		return nil, err
	}
	s.deliver(initial)
	s.transition(types.SubscriptionIdle)

	go s.run()
	return s, nil
}

// notifyLocked signals every subscription registered under the touched
// collections. Signalling never blocks the mutator; bursts coalesce in
// each subscription's wake channel. Caller holds b.mu.
func (b *Backend) notifyLocked(collections ...string) {
	for _, c := range collections {
		for _, s := range b.watchers.subs[c] {
			s.signal()
		}
	}
}

// removeSubscription drops a cancelled subscription from the registry.
func (b *Backend) removeSubscription(s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.watchers.remove(s)
}

// queryCollections maps a query kind to the collections whose changes
// invalidate it.
func queryCollections(kind string) []string {
	switch kind {
	case types.QueryEntries:
		return []string{types.EntriesCollection}
	case types.QueryEntriesWithCategory, types.QueryCategoryCounts:
		return []string{types.EntriesCollection, types.CategoriesCollection}
	default:
		return nil
	}
}

// computeQueryLocked evaluates a continuous query against current
// state. Results are wrapped as []any so a single channel type serves
// every query kind. Caller holds b.mu.
func (b *Backend) computeQueryLocked(q types.Query) ([]any, error) {
	switch q.Kind {
	case types.QueryEntries:
		rows, err := b.entriesLocked()
		if err != nil {
			return nil, err
		}
		out := make([]any, len(rows))
		for i, r := range rows {
			out[i] = r
		}
		return out, nil

	case types.QueryEntriesWithCategory:
		rows, err := b.entriesWithCategoryLocked(q.Filter)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(rows))
		for i, r := range rows {
			out[i] = r
		}
		return out, nil

	case types.QueryCategoryCounts:
		rows, err := b.categoriesWithCountsLocked()
		if err != nil {
			return nil, err
		}
		out := make([]any, len(rows))
		for i, r := range rows {
			out[i] = r
		}
		return out, nil

	default:
		return nil, types.ErrUnknownQuery
	}
}

// computeForWatch is the worker-side evaluation entry point. It takes
// the read lock itself, so it observes state strictly after the
// mutation that signalled the worker, never a partial one.
func (b *Backend) computeForWatch(q types.Query) ([]any, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	return b.computeQueryLocked(q)
}

// subscription is the live handle behind Subscribe. One worker
// goroutine per subscription keeps its deliveries ordered.
type subscription struct {
	id      string
	query   types.Query
	backend *Backend

	mu      sync.Mutex
	state   string
	last    []any
	hasLast bool

	results chan []any
	wake    chan struct{}
	quit    chan struct{}
}

func newSubscription(b *Backend, q types.Query) *subscription {
	return &subscription{
		id:      generateID(),
		query:   q,
		backend: b,
		state:   types.SubscriptionRegistered,
		results: make(chan []any, 1),
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
	}
}

// ID returns the unique identifier of this subscription.
func (s *subscription) ID() string { return s.id }

// Query returns the continuous query this subscription evaluates.
func (s *subscription) Query() types.Query { return s.query }

// State returns the current lifecycle state.
func (s *subscription) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Results returns the delivery channel. Closed after Cancel.
func (s *subscription) Results() <-chan []any { return s.results }

// Cancel stops deliveries and removes the subscription from the store.
// Idempotent.
func (s *subscription) Cancel() {
	if !s.cancelInternal() {
		return
	}
	s.backend.removeSubscription(s)
}

// cancelInternal marks the subscription cancelled and tells the worker
// to stop. Reports whether this call performed the cancellation.
func (s *subscription) cancelInternal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == types.SubscriptionCancelled {
		return false
	}
	s.state = types.SubscriptionCancelled
	close(s.quit)
	return true
}

// signal wakes the worker without blocking the mutator. Signals
// arriving before the worker runs coalesce into one recomputation of
// the newest state.
func (s *subscription) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// deliver records and sends a result. Only used for the initial
// snapshot, while the buffered channel is guaranteed empty.
func (s *subscription) deliver(result []any) {
	s.mu.Lock()
	s.last = result
	s.hasLast = true
	s.mu.Unlock()
	s.results <- result
}

// transition moves the lifecycle state forward if the move is allowed.
// Cancelled is sticky: no transition leaves it.
func (s *subscription) transition(to string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !allowedTransition(s.state, to) {
		return false
	}
	s.state = to
	return true
}

// allowedTransition reports whether a subscription may move between the
// given lifecycle states.
func allowedTransition(from, to string) bool {
	switch from {
	case types.SubscriptionRegistered:
		return to == types.SubscriptionComputing || to == types.SubscriptionCancelled
	case types.SubscriptionComputing:
		return to == types.SubscriptionIdle || to == types.SubscriptionCancelled
	case types.SubscriptionIdle:
		return to == types.SubscriptionComputing || to == types.SubscriptionCancelled
	default:
		return false
	}
}

// run is the per-subscription worker loop.
func (s *subscription) run() {
	for {
		select {
		case <-s.quit:
			close(s.results)
			return
		case <-s.wake:
			s.recompute()
		}
	}
}

// recompute evaluates the query once and delivers the result, unless
// it matches the previous delivery or the subscription was cancelled
// mid-flight.
func (s *subscription) recompute() {
	if !s.transition(types.SubscriptionComputing) {
		return // cancelled before the computation started
	}

	result, err := s.backend.computeForWatch(s.query)
	if err != nil {
		// Recomputation failed; the subscription stays live and the
		// next signal tries again.
		s.transition(types.SubscriptionIdle)
		return
	}

	s.mu.Lock()
	if s.state == types.SubscriptionCancelled {
		s.mu.Unlock()
		return
	}
	unchanged := s.hasLast && reflect.DeepEqual(s.last, result)
	s.mu.Unlock()

	if unchanged {
		s.transition(types.SubscriptionIdle)
		return
	}

	select {
	case s.results <- result:
		s.mu.Lock()
		s.last = result
		s.hasLast = true
		s.mu.Unlock()
		s.transition(types.SubscriptionIdle)
	case <-s.quit:
		// Cancelled while delivering; the result is discarded and the
		// worker loop closes the channel.
	}
}
