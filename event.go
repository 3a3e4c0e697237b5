package pagecap

import "sync"

// EventType identifies a push notification emitted by a capture session
// or a batch run.
type EventType string

// Event types.
const (
	EventLog           EventType = "log"
	EventProgress      EventType = "progress"
	EventTrimSet       EventType = "trim_set"
	EventCompleted     EventType = "completed"
	EventError         EventType = "error"
	EventBatchProgress EventType = "batch_progress"
	EventBatchComplete EventType = "batch_complete"
)

// Event is a single push notification. Fields are populated according to
// Type; fields not used by a type are zero.
type Event struct {
	Type EventType `json:"type"`

	// Message carries log text for EventLog and the error message for
	// EventError.
	Message string `json:"message,omitempty"`

	// Count is the captured frame count for EventProgress and
	// EventCompleted.
	Count int `json:"count,omitempty"`

	// Area is the selected clip region for EventTrimSet.
	Area *Clip `json:"area,omitempty"`

	// Stack carries error detail for EventError when available.
	Stack string `json:"stack,omitempty"`

	// Recoverable distinguishes session errors the caller can retry from
	// fatal loop errors for EventError.
	Recoverable bool `json:"recoverable,omitempty"`

	// Page is the failing page index for fatal EventError events.
	Page int `json:"page,omitempty"`

	// Current and Total report batch position for EventBatchProgress.
	Current int `json:"current,omitempty"`
	Total   int `json:"total,omitempty"`

	// Batch is the status snapshot for EventBatchProgress and
	// EventBatchComplete.
	Batch *BatchStatus `json:"batch,omitempty"`
}

// EventFunc receives events as they are emitted.
type EventFunc func(Event)

// Events fans events out to subscribers. Delivery is synchronous and
// at-least-once with no replay; subscribers must not block. Events is
// safe for concurrent use by multiple goroutines.
type Events struct {
	mu   sync.Mutex
	subs map[int]EventFunc
	next int
}

// NewEvents creates an empty event broker.
func NewEvents() *Events {
	return &Events{subs: make(map[int]EventFunc)}
}

// Subscribe registers fn and returns a function that cancels the
// subscription.
func (e *Events) Subscribe(fn EventFunc) (cancel func()) {
	e.mu.Lock()
	id := e.next
	e.next++
	e.subs[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

// Emit delivers ev to every current subscriber. Subscribers are invoked
// outside the broker lock so a callback may subscribe or cancel.
func (e *Events) Emit(ev Event) {
	e.mu.Lock()
	fns := make([]EventFunc, 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
