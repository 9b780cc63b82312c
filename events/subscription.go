package events

import "sync"

// Subscription is the token returned by Subscribe*. It removes exactly the
// registration it was issued for.
type Subscription struct {
	registry *Registry
	kind     Kind
	id       uint64
	once     sync.Once
}

// Kind returns the subscriber list the token belongs to.
func (s *Subscription) Kind() Kind {
	return s.kind
}

// Unsubscribe removes the registration. Repeated calls are no-ops.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.registry == nil {
		return
	}
	s.once.Do(func() {
		s.registry.remove(s.kind, s.id)
	})
}

// Group collects subscriptions that share a lifetime.
type Group struct {
	mu   sync.Mutex
	subs []*Subscription
}

// Add tracks sub in the group.
func (g *Group) Add(sub *Subscription) {
	if sub == nil {
		return
	}
	g.mu.Lock()
	g.subs = append(g.subs, sub)
	g.mu.Unlock()
}

// Len returns the number of tracked subscriptions.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.subs)
}

// Close unsubscribes every tracked subscription and empties the group.
func (g *Group) Close() {
	g.mu.Lock()
	subs := g.subs
	g.subs = nil
	g.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}
