package wizard

import "sync"

// ExtensionKind names the content shown in the side panel.
type ExtensionKind string

type EventType string

const (
	EventOpened EventType = "opened"
	EventClosed EventType = "closed"
)

type ExtensionEvent struct {
	Type EventType
	Kind ExtensionKind
}

// Panel is what steps use to open or close the side panel.
type Panel interface {
	Trigger(kind ExtensionKind)
	Close()
}

type Observer func(ExtensionEvent)

// ExtensionBus publishes panel events to its observers.
type ExtensionBus struct {
	mu        sync.Mutex
	nextID    int
	observers map[int]Observer
}

func NewExtensionBus() *ExtensionBus {
	return &ExtensionBus{observers: make(map[int]Observer)}
}

// Subscribe registers o and returns a function that removes it.
func (b *ExtensionBus) Subscribe(o Observer) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.observers[id] = o
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.observers, id)
	}
}

func (b *ExtensionBus) Trigger(kind ExtensionKind) {
	b.publish(ExtensionEvent{Type: EventOpened, Kind: kind})
}

func (b *ExtensionBus) Close() {
	b.publish(ExtensionEvent{Type: EventClosed})
}

func (b *ExtensionBus) publish(ev ExtensionEvent) {
	b.mu.Lock()
	observers := make([]Observer, 0, len(b.observers))
	for id := 0; id < b.nextID; id++ {
		if o, ok := b.observers[id]; ok {
			observers = append(observers, o)
		}
	}
	b.mu.Unlock()

	for _, o := range observers {
		o(ev)
	}
}

// PanelState is all the side panel remembers.
type PanelState struct {
	Visible bool          `json:"visible"`
	Kind    ExtensionKind `json:"kind,omitempty"`
}

func (p PanelState) Apply(ev ExtensionEvent) PanelState {
	switch ev.Type {
	case EventOpened:
		return PanelState{Visible: true, Kind: ev.Kind}
	case EventClosed:
		return PanelState{}
	default:
		return p
	}
}

// ExtensionCommand opens or closes the panel from outside a step.
type ExtensionCommand struct {
	Open bool
	Kind ExtensionKind
}
