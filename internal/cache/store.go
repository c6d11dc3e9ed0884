package cache

import (
	"container/list"
	"sync"
	"time"
)

// DefaultCapacity bounds a Store created with a non-positive capacity.
const DefaultCapacity = 100

// Store is an in-memory response cache with a per-entry TTL and a
// least-recently-used bound on the number of resident entries. It lives for
// the lifetime of the process; nothing is persisted.
//
// Every operation holds a single mutex, so a Store is safe for concurrent use
// by in-flight requests. Payloads are copied on write and on read, which keeps
// entries immutable once stored.
type Store struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently used
	items    map[string]*list.Element

	// now is overridable in tests.
	now func() time.Time
}

type entry struct {
	key       string
	payload   []byte
	createdAt time.Time
	ttl       time.Duration
}

func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) >= e.ttl
}

// NewStore returns an empty Store holding at most capacity entries.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element, capacity),
		now:      time.Now,
	}
}

// Get returns a copy of the payload stored under key when it is present and
// unexpired. An expired entry is removed. A hit promotes the entry to most
// recently used.
func (s *Store) Get(key string) ([]byte, bool) {
	payload, _, ok := s.Lookup(key)
	return payload, ok
}

// Lookup is Get that also reports how long the entry stays readable.
func (s *Store) Lookup(key string) ([]byte, time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.items[key]
	if !ok {
		return nil, 0, false
	}
	e := el.Value.(*entry)
	now := s.now()
	if e.expired(now) {
		s.removeElement(el)
		return nil, 0, false
	}
	s.order.MoveToFront(el)
	return clone(e.payload), e.ttl - now.Sub(e.createdAt), true
}

// Put stores payload under key for ttl. Writing a new key into a full store
// evicts the least recently used entry first. A non-positive ttl stores
// nothing.
func (s *Store) Put(key string, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if el, ok := s.items[key]; ok {
		e := el.Value.(*entry)
		e.payload = clone(payload)
		e.createdAt = now
		e.ttl = ttl
		s.order.MoveToFront(el)
		return
	}
	for s.order.Len() >= s.capacity {
		s.removeElement(s.order.Back())
	}
	e := &entry{key: key, payload: clone(payload), createdAt: now, ttl: ttl}
	s.items[key] = s.order.PushFront(e)
}

// Len reports the number of resident entries, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// Purge removes every expired entry and returns how many were dropped.
func (s *Store) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for el := s.order.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*entry).expired(now) {
			s.removeElement(el)
			removed++
		}
		el = prev
	}
	return removed
}

func (s *Store) removeElement(el *list.Element) {
	if el == nil {
		return
	}
	e := s.order.Remove(el).(*entry)
	delete(s.items, e.key)
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
