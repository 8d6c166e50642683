package draft

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/yzzyx/invoice/internal/money"
	"github.com/yzzyx/invoice/internal/orders"
)

var ErrNoSession = errors.New("draft: no such session")

// Snapshot is what the UI shell gets back after every mutation: the
// header, value copies of the live lines and the recomputed total. No
// live references cross the core boundary.
type Snapshot struct {
	SessionID string      `json:"session_id"`
	State     string      `json:"state"`
	Order     orders.Order `json:"order"`
	Items     []LineItem  `json:"items"`
	Total     money.Money `json:"total"`
}

// Session pairs one draft with its id and a mutex. The draft core is
// single-actor; the mutex only serializes delivery of one session's
// intents, it is not a concurrency feature of the core.
type Session struct {
	ID string

	mu    sync.Mutex
	draft *Draft
}

// Do runs fn with exclusive access to the session's draft.
func (s *Session) Do(fn func(d *Draft) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.draft)
}

// Snapshot captures the current state for rendering.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draft
	return Snapshot{
		SessionID: s.ID,
		State:     d.State().String(),
		Order:     d.Order(),
		Items:     d.Items(),
		Total:     d.Total(),
	}
}

// Sessions is the registry of open drafts, keyed by uuid.
type Sessions struct {
	mu sync.Mutex
	m  map[string]*Session
}

func NewSessions() *Sessions {
	return &Sessions{m: make(map[string]*Session)}
}

func (ss *Sessions) Open(d *Draft) *Session {
	s := &Session{ID: uuid.NewString(), draft: d}
	ss.mu.Lock()
	ss.m[s.ID] = s
	ss.mu.Unlock()
	return s
}

func (ss *Sessions) Get(id string) (*Session, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if s, ok := ss.m[id]; ok {
		return s, nil
	}
	return nil, ErrNoSession
}

// Close drops a finished session. The draft and its ledger go with it.
func (ss *Sessions) Close(id string) {
	ss.mu.Lock()
	delete(ss.m, id)
	ss.mu.Unlock()
}
