package redisad

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"kemdeholo/internal/adapters/observability"
	"kemdeholo/internal/domain"
)

// Signals carries refresh signals over a Redis pub/sub channel. The latest
// marker is also kept under the channel name so late readers can poll it.
type Signals struct {
	c       *redis.Client
	channel string
}

func NewSignals(c *redis.Client, channel string) *Signals {
	return &Signals{c: c, channel: channel}
}

func (s *Signals) Publish(ctx context.Context, sig domain.Signal) error {
	b, err := json.Marshal(sig)
	if err != nil {
		return err
	}
	pipe := s.c.Pipeline()
	pipe.Set(ctx, s.channel, sig.Marker(), 0)
	pipe.Publish(ctx, s.channel, b)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	observability.ObserveSignal(sig.Event)
	return nil
}

func (s *Signals) Subscribe(ctx context.Context) (<-chan domain.Signal, error) {
	ps := s.c.Subscribe(ctx, s.channel)
	// wait for the subscription confirmation so no publish is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	out := make(chan domain.Signal, 8)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var sig domain.Signal
				if err := json.Unmarshal([]byte(m.Payload), &sig); err != nil {
					log.Warn().Err(err).Str("channel", s.channel).Msg("dropping malformed signal")
					continue
				}
				select {
				case out <- sig:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Latest returns the last marker written, or "" when none.
func (s *Signals) Latest(ctx context.Context) (string, error) {
	v, err := s.c.Get(ctx, s.channel).Result()
	if err == redis.Nil {
		return "", nil
	}
	return v, err
}
