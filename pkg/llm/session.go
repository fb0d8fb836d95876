package llm

import (
	"fmt"
	"sort"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Session is a named conversation context: an append-only message history
// plus an open key/value bag for caller-defined data. The history grows only
// through completed queries; the state bag is entirely caller-controlled and
// never inspected by the provider.
type Session struct {
	id      string
	created time.Time

	mu       sync.Mutex
	messages []Message
	state    map[string]any
}

func newSession() *Session {
	return &Session{
		id:      newSessionID(),
		created: time.Now(),
		state:   make(map[string]any),
	}
}

// newSessionID builds an identifier from a fixed prefix, the creation time,
// and a random suffix.
func newSessionID() string {
	suffix, err := gonanoid.New(10)
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("sess_%d_%s", time.Now().UnixMilli(), suffix)
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time { return s.created }

// Messages returns a copy of the conversation history.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages in the history.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// append adds one message to the history.
func (s *Session) append(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// Set stores a caller-defined value in the session's state bag.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[key] = value
}

// Get reads a caller-defined value from the session's state bag.
func (s *Session) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.state[key]
	return v, ok
}

// Delete removes a caller-defined value from the session's state bag.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state, key)
}

// sessionStore is the in-memory session map. Sessions live and die with the
// process; nothing is persisted.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*Session)}
}

func (s *sessionStore) add(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.id] = sess
}

func (s *sessionStore) get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// remove deletes a session by id, reporting whether it existed.
func (s *sessionStore) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// list returns all sessions ordered by creation time.
func (s *sessionStore) list() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].created.Before(out[j].created) })
	return out
}

func (s *sessionStore) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*Session)
}
