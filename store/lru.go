package store

import (
	"container/list"
	"sync"
	"time"
)

// LRU evicts the least recently used entries once the summed size of keys
// and values exceeds MaxBytes. Entries may also carry a deadline.
type LRU struct {
	mu        sync.Mutex
	ll        *list.List // front is oldest
	items     map[string]*list.Element
	maxBytes  int64
	usedBytes int64
	onEvicted func(key string, value Value)

	ticker    *time.Ticker
	done      chan struct{}
	closeOnce sync.Once
}

type entry struct {
	key     string
	value   Value
	expires time.Time // zero: never
}

func (e *entry) size() int64 {
	return int64(len(e.key) + e.value.Len())
}

func (e *entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// New builds an LRU and starts its expiry sweep. Call Close to stop it.
func New(opts Options) *LRU {
	interval := opts.CleanupInterval
	if interval <= 0 {
		interval = time.Minute
	}
	c := &LRU{
		ll:        list.New(),
		items:     make(map[string]*list.Element),
		maxBytes:  opts.MaxBytes,
		onEvicted: opts.OnEvicted,
		ticker:    time.NewTicker(interval),
		done:      make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

// Get returns the value for key and marks it most recently used.
func (c *LRU) Get(key string) (Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	e := elem.Value.(*entry)
	if e.expired(time.Now()) {
		c.removeElement(elem)
		return nil, false
	}
	c.ll.MoveToBack(elem)
	return e.value, true
}

// Set stores value without a deadline. A nil value deletes key.
func (c *LRU) Set(key string, value Value) error {
	return c.SetWithExpiration(key, value, 0)
}

// SetWithExpiration stores value; ttl <= 0 means no deadline.
func (c *LRU) SetWithExpiration(key string, value Value, ttl time.Duration) error {
	if value == nil {
		c.Delete(key)
		return nil
	}
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry)
		c.usedBytes -= e.size()
		e.value = value
		e.expires = expires
		c.usedBytes += e.size()
		c.ll.MoveToBack(elem)
	} else {
		e := &entry{key: key, value: value, expires: expires}
		c.items[key] = c.ll.PushBack(e)
		c.usedBytes += e.size()
	}
	c.shrink()
	return nil
}

// Delete removes key, reporting whether it was present.
func (c *LRU) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeElement(elem)
	return true
}

// Clear drops every entry, running OnEvicted for each.
func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.ll.Len() > 0 {
		c.removeElement(c.ll.Front())
	}
}

func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *LRU) UsedBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usedBytes
}

// Close stops the expiry sweep. Entries stay readable.
func (c *LRU) Close() {
	c.closeOnce.Do(func() {
		c.ticker.Stop()
		close(c.done)
	})
}

func (c *LRU) sweepLoop() {
	for {
		select {
		case <-c.ticker.C:
			c.mu.Lock()
			c.removeExpired(time.Now())
			c.mu.Unlock()
		case <-c.done:
			return
		}
	}
}

// shrink enforces maxBytes after dropping anything already expired.
func (c *LRU) shrink() {
	c.removeExpired(time.Now())
	if c.maxBytes <= 0 {
		return
	}
	for c.usedBytes > c.maxBytes && c.ll.Len() > 0 {
		c.removeElement(c.ll.Front())
	}
}

func (c *LRU) removeExpired(now time.Time) {
	for elem := c.ll.Front(); elem != nil; {
		next := elem.Next()
		if elem.Value.(*entry).expired(now) {
			c.removeElement(elem)
		}
		elem = next
	}
}

func (c *LRU) removeElement(elem *list.Element) {
	e := elem.Value.(*entry)
	c.ll.Remove(elem)
	delete(c.items, e.key)
	c.usedBytes -= e.size()
	if c.onEvicted != nil {
		c.onEvicted(e.key, e.value)
	}
}
