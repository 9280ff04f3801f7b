package thread

// EventKind says what changed in the model.
type EventKind string

const (
	EventLoaded     EventKind = "loaded"
	EventLoadFailed EventKind = "load_failed"
	EventAdded      EventKind = "added"
	EventConfirmed  EventKind = "confirmed"
	EventEdited     EventKind = "edited"
	EventRemoved    EventKind = "removed"
	EventReacted    EventKind = "reacted"
	EventUnreacted  EventKind = "unreacted"
	EventReverted   EventKind = "reverted"
	EventClosed     EventKind = "closed"
)

// Event is delivered to the binding after the model changed. Err is set on
// EventLoadFailed and EventReverted.
type Event struct {
	Kind      EventKind
	CommentID string
	Err       error
}

// Binding is the boundary to whatever renders the thread. Notify is called
// without the model lock held, so implementations may read the model.
type Binding interface {
	Notify(Event)
}

// BindingFunc adapts a function to Binding.
type BindingFunc func(Event)

func (f BindingFunc) Notify(e Event) { f(e) }

type nopBinding struct{}

func (nopBinding) Notify(Event) {}
