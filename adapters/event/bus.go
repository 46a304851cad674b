package event

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/khoahotran/pictures/internal/application/service"
	"github.com/khoahotran/pictures/pkg/logger"
)

// Bus fans change events out to in-process subscribers. Handlers run synchronously on the
// publishing goroutine and must not block.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(service.ChangeEvent)
	logger logger.Logger
}

func NewBus(log logger.Logger) *Bus {
	return &Bus{subs: make(map[int]func(service.ChangeEvent)), logger: log}
}

// Subscribe registers fn and returns a func that removes it. Calling that func twice is fine.
func (b *Bus) Subscribe(fn func(service.ChangeEvent)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

func (b *Bus) Publish(_ context.Context, evt service.ChangeEvent) error {
	b.mu.RLock()
	handlers := make([]func(service.ChangeEvent), 0, len(b.subs))
	for _, fn := range b.subs {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		b.deliver(fn, evt)
	}
	return nil
}

func (b *Bus) deliver(fn func(service.ChangeEvent), evt service.ChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("Event subscriber panicked", zap.String("kind", string(evt.Kind)), zap.Any("panic", r))
		}
	}()
	fn(evt)
}

func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Multi publishes to every sink and joins their errors. A failing sink does not stop the rest.
type Multi []service.EventPublisher

func (m Multi) Publish(ctx context.Context, evt service.ChangeEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
