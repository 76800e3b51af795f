package main

import (
	"context"
	"time"

	"github.com/entrealas/orderdesk/internal/delivery"
	"github.com/entrealas/orderdesk/pkg/logger"
)

const counterTTL = 48 * time.Hour

type counter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	CounterKey(parts ...string) string
}

// newHandler logs each handed-off order and bumps the per-day received
// counter in the shop's local time.
func newHandler(store counter, logg *logger.Logger, now func() time.Time) delivery.Handler {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context, env delivery.Envelope) error {
		day := now().Format("2006-01-02")
		n, err := store.IncrWithTTL(ctx, store.CounterKey("received", day), counterTTL)
		if err != nil {
			return err
		}
		ctx = logg.WithOrderCode(ctx, env.Code)
		ctx = logg.WithFields(ctx, map[string]any{
			"order_id":     env.OrderID,
			"client":       env.Client,
			"ticket":       env.Message,
			"received_day": day,
			"received_n":   n,
		})
		logg.Info(ctx, "order.ticket")
		return nil
	}
}

// payloads adapts a subscription feed to the consumer's string channel and
// closes when the feed does.
func payloads[T any](ctx context.Context, in <-chan T, text func(T) string) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- text(msg):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
