// Package servicecache keeps the services offered by the deploy-stage form,
// combining what the backend returned with services created inline during
// the session.
package servicecache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/ngconsole/ngconsole/internal/ngclient"
)

const defaultLimit = 200

type Service struct {
	Identifier  string `json:"identifier"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// Local marks services created in this session that the backend has
	// not listed yet.
	Local bool `json:"local,omitempty"`
}

func FromAPI(in ngclient.ServiceDTO) Service {
	return Service{Identifier: in.Identifier, Name: in.Name, Description: in.Description}
}

// Cache is an ordered set of services keyed by identifier.
type Cache struct {
	Items []Service `json:"items"`
	Limit int       `json:"limit"`
}

func New(limit int) *Cache {
	if limit < 1 {
		limit = defaultLimit
	}
	return &Cache{Limit: limit}
}

func (c *Cache) index(identifier string) int {
	for i, s := range c.Items {
		if s.Identifier == identifier {
			return i
		}
	}
	return -1
}

// Upsert replaces the service with the same identifier or appends it.
func (c *Cache) Upsert(s Service) {
	s.Identifier = strings.TrimSpace(s.Identifier)
	if s.Identifier == "" {
		return
	}
	if i := c.index(s.Identifier); i >= 0 {
		c.Items[i] = s
		return
	}
	c.Items = append(c.Items, s)
	c.trim()
}

// Merge makes fetched the new backend view. Fetched services replace cached
// ones with the same identifier; local services the backend does not list
// yet are kept after them. Non-local services missing from fetched are
// dropped.
func (c *Cache) Merge(fetched []Service) {
	out := make([]Service, 0, len(fetched)+len(c.Items))
	seen := make(map[string]bool, len(fetched))
	for _, s := range fetched {
		s.Identifier = strings.TrimSpace(s.Identifier)
		if s.Identifier == "" || seen[s.Identifier] {
			continue
		}
		s.Local = false
		seen[s.Identifier] = true
		out = append(out, s)
	}
	for _, s := range c.Items {
		if s.Local && !seen[s.Identifier] {
			out = append(out, s)
		}
	}
	c.Items = out
	c.trim()
}

func (c *Cache) Get(identifier string) (Service, bool) {
	if i := c.index(strings.TrimSpace(identifier)); i >= 0 {
		return c.Items[i], true
	}
	return Service{}, false
}

func (c *Cache) List() []Service {
	out := make([]Service, len(c.Items))
	copy(out, c.Items)
	return out
}

// trim drops the oldest backend services first, then the oldest local ones.
func (c *Cache) trim() {
	limit := c.Limit
	if limit < 1 {
		limit = defaultLimit
	}
	for len(c.Items) > limit {
		drop := 0
		for i, s := range c.Items {
			if !s.Local {
				drop = i
				break
			}
		}
		c.Items = append(c.Items[:drop], c.Items[drop+1:]...)
	}
}

// SessionStore keeps one cache per session.
type SessionStore struct {
	sessions *scs.SessionManager
	key      string
	limit    int
}

func NewSessionStore(sessions *scs.SessionManager, key string, limit int) *SessionStore {
	return &SessionStore{sessions: sessions, key: key, limit: limit}
}

func (s *SessionStore) Load(ctx context.Context) (*Cache, error) {
	cache := New(s.limit)
	raw := s.sessions.GetString(ctx, s.key)
	if raw == "" {
		return cache, nil
	}
	if err := json.Unmarshal([]byte(raw), cache); err != nil {
		s.sessions.Remove(ctx, s.key)
		return New(s.limit), fmt.Errorf("decode service cache: %w", err)
	}
	cache.Limit = New(s.limit).Limit
	return cache, nil
}

func (s *SessionStore) Save(ctx context.Context, cache *Cache) error {
	raw, err := json.Marshal(cache)
	if err != nil {
		return fmt.Errorf("encode service cache: %w", err)
	}
	s.sessions.Put(ctx, s.key, string(raw))
	return nil
}
