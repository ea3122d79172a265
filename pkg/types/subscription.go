package types

// Subscription states. A subscription progresses through these states
// during its lifecycle.
const (
	SubscriptionRegistered = "registered"
	SubscriptionComputing  = "computing"
	SubscriptionIdle       = "idle"
	SubscriptionCancelled  = "cancelled"
)

// Subscription is a live handle to a continuous query. The store
// recomputes the query after every committed mutation, direct or via
// undo and redo, that touches a collection the query depends on, and
// delivers the new result set when it differs from the last delivery.
type Subscription interface {
	// ID returns the unique identifier of this subscription.
	ID() string

	// Query returns the continuous query this subscription evaluates.
	Query() Query

	// State returns the current lifecycle state (one of the
	// Subscription state constants).
	State() string

	// Results returns the delivery channel. Each delivery is the full
	// recomputed result set; element types follow Query().Kind.
	// The channel is closed after Cancel.
	Results() <-chan []any

	// Cancel stops deliveries and removes the subscription from the
	// store. Idempotent. A recomputation in flight when Cancel is
	// called is discarded, not delivered.
	Cancel()
}
