// Package locks hands out one fair mutex per user id.
//
// Waiters on the same id are served in arrival order: Release passes ownership directly
// to the oldest waiter, so a newcomer can never barge ahead of the queue.
//
// Eviction is reference counted. A caller takes a reference under the registry mutex before
// it touches the entry and drops it after release or cancellation. An entry is removed only
// when its count reaches zero, which means it has no holder and no waiter. A later Acquire
// either finds the live entry or creates a fresh one; it can never reach a half-removed one.
package locks

import (
	"container/list"
	"context"
	"sync"
)

type Option func(*Registry)

// WithEviction controls whether idle entries are dropped. Enabled by default.
func WithEviction(enabled bool) Option {
	return func(r *Registry) { r.evict = enabled }
}

type Registry struct {
	mu      sync.Mutex
	entries map[int64]*entry
	evict   bool
}

type entry struct {
	refs int // guarded by Registry.mu

	mu      sync.Mutex
	held    bool
	waiters list.List // of chan struct{}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{entries: make(map[int64]*entry), evict: true}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Handle is proof of ownership of one user's lock.
type Handle struct {
	r    *Registry
	id   int64
	e    *entry
	once sync.Once
}

func (h *Handle) UserID() int64 { return h.id }

// Release gives the lock to the next waiter, if any. Calling it twice is a no-op.
func (h *Handle) Release() {
	h.once.Do(func() {
		h.e.unlock()
		h.r.unref(h.id, h.e)
	})
}

// Acquire blocks until the caller owns the lock for id or ctx is done.
// On cancellation nothing is left held or queued.
func (r *Registry) Acquire(ctx context.Context, id int64) (*Handle, error) {
	e := r.ref(id)

	e.mu.Lock()
	if !e.held && e.waiters.Len() == 0 {
		e.held = true
		e.mu.Unlock()
		return &Handle{r: r, id: id, e: e}, nil
	}
	ch := make(chan struct{})
	elem := e.waiters.PushBack(ch)
	e.mu.Unlock()

	select {
	case <-ch:
		return &Handle{r: r, id: id, e: e}, nil
	case <-ctx.Done():
	}

	e.mu.Lock()
	select {
	case <-ch:
		// ownership arrived while we were giving up; pass it on
		e.mu.Unlock()
		e.unlock()
	default:
		e.waiters.Remove(elem)
		e.mu.Unlock()
	}
	r.unref(id, e)
	return nil, ctx.Err()
}

// Len reports how many ids currently have an entry.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) ref(id int64) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		e = &entry{}
		r.entries[id] = e
	}
	e.refs++
	return e
}

func (r *Registry) unref(id int64, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.refs--
	if e.refs == 0 && r.evict && r.entries[id] == e {
		delete(r.entries, id)
	}
}

// unlock hands ownership to the oldest waiter or marks the entry free.
func (e *entry) unlock() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if front := e.waiters.Front(); front != nil {
		e.waiters.Remove(front)
		close(front.Value.(chan struct{}))
		return
	}
	e.held = false
}
