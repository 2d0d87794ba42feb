package multiplayer

import (
	"sort"
	"sync"
	"time"
)

// SessionHandle is the transport-neutral interface for communicating with a session.
// It allows the coordinator to send events without depending on websocket or SSH code.
type SessionHandle interface {
	// ID returns the unique session identifier.
	ID() SessionID

	// Send sends an event to the session asynchronously.
	// Must be non-blocking; implementations should use buffered channels.
	Send(evt SessionEvent)

	// Done returns a channel that closes when the session ends.
	Done() <-chan struct{}
}

// ChannelSession is a SessionHandle implementation using Go channels.
// Used by the transports and by in-process participants.
type ChannelSession struct {
	id       SessionID
	events   chan SessionEvent
	done     chan struct{}
	doneOnce sync.Once
}

// NewChannelSession creates a new channel-based session handle.
// eventBufferSize controls how many events can be buffered before dropping.
func NewChannelSession(id SessionID, eventBufferSize int) *ChannelSession {
	if eventBufferSize < 1 {
		eventBufferSize = 64 // Default buffer size
	}
	return &ChannelSession{
		id:     id,
		events: make(chan SessionEvent, eventBufferSize),
		done:   make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *ChannelSession) ID() SessionID {
	return s.id
}

// Send sends an event to the session.
// If the buffer is full, the oldest event is dropped to prevent blocking.
func (s *ChannelSession) Send(evt SessionEvent) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.events <- evt:
	default:
		select {
		case <-s.events:
		default:
		}
		select {
		case s.events <- evt:
		default:
		}
	}
}

// Events returns the channel to receive events from.
func (s *ChannelSession) Events() <-chan SessionEvent {
	return s.events
}

// Done returns the done channel.
func (s *ChannelSession) Done() <-chan struct{} {
	return s.done
}

// Close marks the session as done.
// Safe to call multiple times.
func (s *ChannelSession) Close() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

// SessionRegistry maps participant identifiers to their live session and
// presence. Thread-safe for concurrent access.
type SessionRegistry struct {
	mu    sync.RWMutex
	users map[ParticipantID]*registryEntry
	now   func() time.Time
}

type registryEntry struct {
	user   User
	handle SessionHandle
}

// NewSessionRegistry creates a new session registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		users: make(map[ParticipantID]*registryEntry),
		now:   time.Now,
	}
}

// Login binds a participant to a session and marks it online. A second login
// for the same participant replaces the previous session.
func (r *SessionRegistry) Login(id ParticipantID, username string, handle SessionHandle) User {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := User{ID: id, Username: username, Status: PresenceOnline, LastActive: r.now()}
	r.users[id] = &registryEntry{user: u, handle: handle}
	return u
}

// Disconnect marks a participant offline if session is still its current
// session. Returns false when the participant is unknown or has already
// moved to another session.
func (r *SessionRegistry) Disconnect(id ParticipantID, session SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.users[id]
	if !ok || e.handle == nil || e.handle.ID() != session {
		return false
	}
	e.handle = nil
	e.user.Status = PresenceOffline
	e.user.LastActive = r.now()
	return true
}

// Remove forgets a participant entirely.
func (r *SessionRegistry) Remove(id ParticipantID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

// Get returns the user record for a participant.
func (r *SessionRegistry) Get(id ParticipantID) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.users[id]
	if !ok {
		return User{}, false
	}
	return e.user, true
}

// IsOnline reports whether the participant has a live session.
func (r *SessionRegistry) IsOnline(id ParticipantID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.users[id]
	return ok && e.handle != nil
}

// Handle returns the live session of an online participant.
func (r *SessionRegistry) Handle(id ParticipantID) (SessionHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.users[id]
	if !ok || e.handle == nil {
		return nil, false
	}
	return e.handle, true
}

// Handles returns the sessions of every online participant.
func (r *SessionRegistry) Handles() []SessionHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SessionHandle, 0, len(r.users))
	for _, e := range r.users {
		if e.handle != nil {
			out = append(out, e.handle)
		}
	}
	return out
}

// Touch refreshes a participant's last-active timestamp.
func (r *SessionRegistry) Touch(id ParticipantID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.users[id]; ok {
		e.user.LastActive = r.now()
	}
}

// Users returns every known user sorted by id.
func (r *SessionRegistry) Users() []User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]User, 0, len(r.users))
	for _, e := range r.users {
		out = append(out, e.user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of online users.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.users {
		if e.handle != nil {
			n++
		}
	}
	return n
}

// PurgeOffline removes users that went offline before cutoff and returns their ids.
func (r *SessionRegistry) PurgeOffline(cutoff time.Time) []ParticipantID {
	r.mu.Lock()
	defer r.mu.Unlock()
	var purged []ParticipantID
	for id, e := range r.users {
		if e.handle == nil && e.user.LastActive.Before(cutoff) {
			delete(r.users, id)
			purged = append(purged, id)
		}
	}
	return purged
}
