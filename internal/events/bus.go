// Package events carries runtime notifications (window lifecycle, file
// changes) to whoever listens on the front-end side.
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	AppReady = "app://ready"
	AppExit  = "app://exit"
)

type Event struct {
	Name      string
	Payload   interface{}
	Timestamp time.Time
}

type Handler func(Event)

type listener struct {
	id uint64
	fn Handler
}

type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]listener
	nextID    atomic.Uint64

	sendMu sync.RWMutex
	closed bool
	buffer chan Event
	wg     sync.WaitGroup
}

func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 64
	}

	bus := &Bus{
		listeners: make(map[string][]listener),
		buffer:    make(chan Event, bufferSize),
	}

	bus.startWorker()
	return bus
}

// Emit queues an event. It never blocks: when the buffer is full the event
// is dropped and Emit reports false.
func (b *Bus) Emit(name string, payload interface{}) bool {
	b.sendMu.RLock()
	defer b.sendMu.RUnlock()

	if b.closed {
		return false
	}

	select {
	case b.buffer <- Event{Name: name, Payload: payload, Timestamp: time.Now()}:
		return true
	default:
		return false
	}
}

// Listen registers fn for events called name and returns the matching unlisten
func (b *Bus) Listen(name string, fn Handler) func() {
	id := b.nextID.Add(1)

	b.mu.Lock()
	b.listeners[name] = append(b.listeners[name], listener{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(name, id) })
	}
}

func (b *Bus) remove(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.listeners[name]
	for i, l := range current {
		if l.id == id {
			b.listeners[name] = append(current[:i:i], current[i+1:]...)
			break
		}
	}
	if len(b.listeners[name]) == 0 {
		delete(b.listeners, name)
	}
}

// Shutdown delivers everything already queued, then stops the worker.
// Safe to call more than once.
func (b *Bus) Shutdown() {
	b.sendMu.Lock()
	if b.closed {
		b.sendMu.Unlock()
		return
	}
	b.closed = true
	close(b.buffer)
	b.sendMu.Unlock()

	b.wg.Wait()
}

func (b *Bus) startWorker() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for event := range b.buffer {
			b.dispatch(event)
		}
	}()
}

func (b *Bus) dispatch(event Event) {
	b.mu.RLock()
	handlers := make([]listener, len(b.listeners[event.Name]))
	copy(handlers, b.listeners[event.Name])
	b.mu.RUnlock()

	for _, l := range handlers {
		deliver(l.fn, event)
	}
}

func deliver(fn Handler, event Event) {
	defer func() {
		// a misbehaving listener must not stop the worker
		_ = recover()
	}()
	fn(event)
}
