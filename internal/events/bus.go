// Package events provides an in-process publish/subscribe bus keyed by event kind.
package events

import (
	"fmt"
	"sync"
)

// Handler receives the payload of an emitted event.
type Handler func(data map[string]any) error

// Well-known kinds.
const (
	KindGesture = "gesture"
	KindCursor  = "cursor"
	KindState   = "state"
)

type subscription struct {
	id uint64
	h  Handler
}

// Bus delivers events synchronously, in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// Subscribe registers h for kind and returns a function that removes it.
func (b *Bus) Subscribe(kind string, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[kind] = append(b.subs[kind], subscription{id: id, h: h})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(kind, id) })
	}
}

func (b *Bus) remove(kind string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[kind]
	for i, s := range subs {
		if s.id == id {
			b.subs[kind] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[kind]) == 0 {
		delete(b.subs, kind)
	}
}

// Emit calls every handler for kind in order. A failing or panicking handler
// does not stop the others; their errors are returned.
func (b *Bus) Emit(kind string, data map[string]any) []error {
	b.mu.RLock()
	subs := b.subs[kind]
	b.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if err := call(s.h, data); err != nil {
			errs = append(errs, fmt.Errorf("%s handler: %w", kind, err))
		}
	}
	return errs
}

// Count returns the number of handlers for kind.
func (b *Bus) Count(kind string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[kind])
}

func call(h Handler, data map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(data)
}
