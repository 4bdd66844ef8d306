package session

import (
	"sync"

	"github.com/kozaktomas/face-overlay/internal/constants"
)

// broadcaster fans session events out to listeners. Slow listeners miss
// events instead of blocking the session loop.
type broadcaster struct {
	listeners []chan Event
	mu        sync.RWMutex
}

func (b *broadcaster) add() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, constants.EventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

func (b *broadcaster) remove(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(listener)
			return
		}
	}
}

func (b *broadcaster) send(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}

func (b *broadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, listener := range b.listeners {
		close(listener)
	}
	b.listeners = nil
}
