package wizard

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alexedwards/scs/v2"
)

// Store keeps the state of one wizard between requests.
type Store[P Payload] interface {
	Load(ctx context.Context) (State[P], bool, error)
	Save(ctx context.Context, s State[P]) error
	Clear(ctx context.Context)
}

// SessionStore keeps wizard state as JSON in the user's session. The request
// context must carry a loaded session.
type SessionStore[P Payload] struct {
	sessions *scs.SessionManager
	key      string
	kind     Kind
}

func NewSessionStore[P Payload](sessions *scs.SessionManager, key string) *SessionStore[P] {
	var zero P
	return &SessionStore[P]{sessions: sessions, key: key, kind: zero.WizardKind()}
}

func (s *SessionStore[P]) Load(ctx context.Context) (State[P], bool, error) {
	var state State[P]
	raw := s.sessions.GetString(ctx, s.key)
	if raw == "" {
		return state, false, nil
	}
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		s.sessions.Remove(ctx, s.key)
		return State[P]{}, false, fmt.Errorf("decode wizard state: %w", err)
	}
	if state.Kind != s.kind {
		s.sessions.Remove(ctx, s.key)
		return State[P]{}, false, fmt.Errorf("%w: got %q, want %q", ErrKindMismatch, state.Kind, s.kind)
	}
	return state, true, nil
}

func (s *SessionStore[P]) Save(ctx context.Context, state State[P]) error {
	if state.Kind != s.kind {
		return fmt.Errorf("%w: got %q, want %q", ErrKindMismatch, state.Kind, s.kind)
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode wizard state: %w", err)
	}
	s.sessions.Put(ctx, s.key, string(raw))
	return nil
}

func (s *SessionStore[P]) Clear(ctx context.Context) {
	s.sessions.Remove(ctx, s.key)
}
