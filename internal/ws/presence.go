package ws

import "sync"

// Presence maps user ids to their set of open connection ids. A user is
// online iff their set is non-empty; transitions fire exactly once per
// empty<->non-empty edge regardless of how many connections the user holds.
type Presence struct {
	mu    sync.Mutex
	conns map[string]map[string]struct{}
}

// NewPresence creates an empty registry.
func NewPresence() *Presence {
	return &Presence{conns: make(map[string]map[string]struct{})}
}

// Register adds a connection id to the user's set and reports whether the
// user just came online. Idempotent per connection id.
func (p *Presence) Register(userID, connID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.conns[userID]
	if !ok {
		set = make(map[string]struct{})
		p.conns[userID] = set
	}
	wasEmpty := len(set) == 0
	set[connID] = struct{}{}
	return wasEmpty
}

// Unregister removes a connection id from the user's set and reports whether
// the user just went offline. Empty sets are dropped entirely.
func (p *Presence) Unregister(userID, connID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.conns[userID]
	if !ok {
		return false
	}
	if _, ok := set[connID]; !ok {
		return false
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(p.conns, userID)
		return true
	}
	return false
}

// IsOnline reports whether the user has at least one open connection.
func (p *Presence) IsOnline(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns[userID]) > 0
}

// OnlineUsers returns a point-in-time snapshot of online user ids.
func (p *Presence) OnlineUsers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	users := make([]string, 0, len(p.conns))
	for userID := range p.conns {
		users = append(users, userID)
	}
	return users
}

// OnlineCount returns the number of online users.
func (p *Presence) OnlineCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}
