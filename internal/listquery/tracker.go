package listquery

import (
	"context"
	"sync"
)

// Tracker sequences list fetches per key (typically session and page). A new
// fetch cancels the previous one for the same key, and a response only counts
// while its ticket is the latest.
type Tracker struct {
	mu     sync.Mutex
	seq    uint64
	latest map[string]uint64
	cancel map[string]context.CancelFunc
}

func NewTracker() *Tracker {
	return &Tracker{
		latest: make(map[string]uint64),
		cancel: make(map[string]context.CancelFunc),
	}
}

type Ticket struct {
	tracker *Tracker
	key     string
	seq     uint64
}

// Begin starts a fetch for key and returns the context it must run under.
func (t *Tracker) Begin(ctx context.Context, key string) (context.Context, *Ticket) {
	fetchCtx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.cancel[key]; ok {
		prev()
	}
	t.seq++
	t.latest[key] = t.seq
	t.cancel[key] = cancel
	return fetchCtx, &Ticket{tracker: t, key: key, seq: t.seq}
}

func (k *Ticket) Seq() uint64 { return k.seq }

// Latest reports whether no newer fetch has started for the same key.
func (k *Ticket) Latest() bool {
	k.tracker.mu.Lock()
	defer k.tracker.mu.Unlock()
	return k.tracker.latest[k.key] == k.seq
}

// Done releases the fetch context. It must be called once the response has
// been handled.
func (k *Ticket) Done() {
	t := k.tracker
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.latest[k.key] != k.seq {
		return
	}
	if cancel, ok := t.cancel[k.key]; ok {
		cancel()
	}
	delete(t.cancel, k.key)
	delete(t.latest, k.key)
}
