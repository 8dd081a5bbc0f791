package app

import (
	"context"
	"sync"

	"kemdeholo/internal/domain"
)

// LocalBus is an in-process signal channel. Slow subscribers miss signals
// rather than block publishers.
type LocalBus struct {
	mu   sync.Mutex
	subs map[chan domain.Signal]struct{}
	last *domain.Signal
}

func NewLocalBus() *LocalBus {
	return &LocalBus{subs: map[chan domain.Signal]struct{}{}}
}

func (b *LocalBus) Publish(_ context.Context, s domain.Signal) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = &s
	for ch := range b.subs {
		select {
		case ch <- s:
		default:
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context) (<-chan domain.Signal, error) {
	ch := make(chan domain.Signal, 8)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

// Last returns the most recent signal, like reading the shared key back.
func (b *LocalBus) Last() (domain.Signal, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		return domain.Signal{}, false
	}
	return *b.last, true
}
