package event

import (
	"sync"

	"go.uber.org/zap"
)

// Bus dispatches ledger events to registered listeners. Delivery is
// synchronous and in registration order, so listeners observe events in the
// exact order the ledger committed them.
type Bus struct {
	mu        sync.RWMutex
	listeners map[Type][]func(msg interface{})
}

func NewBus() *Bus {
	return &Bus{listeners: map[Type][]func(msg interface{}){}}
}

func (b *Bus) AddEventListener(eventType Type, callback func(msg interface{})) {
	zap.L().With(zap.String("type", string(eventType))).Debug("EventBus: AddListener")

	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners[eventType] = append(b.listeners[eventType], callback)
}

func (b *Bus) EmitEvent(eventType Type, msg interface{}) {
	b.mu.RLock()
	listeners := b.listeners[eventType]
	b.mu.RUnlock()

	if len(listeners) == 0 {
		zap.L().With(zap.String("type", string(eventType))).Debug("EventBus: No listeners")
		return
	}

	for _, listener := range listeners {
		listener(msg)
	}
}
