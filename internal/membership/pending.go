package membership

import "sync"

// pendingSet tracks (project, user) keys with a write in flight.
type pendingSet struct {
	mu   sync.Mutex
	keys map[Key]struct{}
}

func newPendingSet() *pendingSet {
	return &pendingSet{keys: make(map[Key]struct{})}
}

// acquire marks key as pending. It returns false if the key was already pending.
func (p *pendingSet) acquire(key Key) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, busy := p.keys[key]; busy {
		return false
	}
	p.keys[key] = struct{}{}
	return true
}

func (p *pendingSet) release(key Key) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.keys, key)
}

func (p *pendingSet) has(key Key) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.keys[key]
	return ok
}

func (p *pendingSet) snapshot() []Key {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Key, 0, len(p.keys))
	for k := range p.keys {
		out = append(out, k)
	}
	return out
}
