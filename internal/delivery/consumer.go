package delivery

import (
	"context"
	"encoding/json"
	"time"

	pkgerrors "github.com/entrealas/orderdesk/pkg/errors"
	"github.com/entrealas/orderdesk/pkg/logger"
)

// Handler processes one received envelope.
type Handler func(ctx context.Context, env Envelope) error

// Consumer drains handed-off orders from a subscription feed.
type Consumer struct {
	handle Handler
	logg   *logger.Logger
}

func NewConsumer(handle Handler, logg *logger.Logger) (*Consumer, error) {
	if handle == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery handler required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger required")
	}
	return &Consumer{handle: handle, logg: logg}, nil
}

// Run processes payloads until ctx is canceled or the feed closes.
func (c *Consumer) Run(ctx context.Context, payloads <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-payloads:
			if !ok {
				return nil
			}
			c.process(ctx, payload)
		}
	}
}

func (c *Consumer) process(ctx context.Context, payload string) {
	var env Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		c.logg.Error(ctx, "failed to decode envelope", err)
		return
	}

	logCtx := c.logg.WithOrderCode(ctx, env.Code)
	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"total":       env.Total.StringFixed(2),
		"prepared_at": env.Prepared.Format(time.RFC3339),
	})
	if err := c.handle(logCtx, env); err != nil {
		c.logg.Error(logCtx, "order hand-off handling failed", err)
		return
	}
	c.logg.Info(logCtx, "order.received")
}
