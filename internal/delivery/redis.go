package delivery

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"time"

	pkgerrors "github.com/entrealas/orderdesk/pkg/errors"
)

const idempotencyScope = "delivery"

// ErrCodeInUse is wrapped by the conflict returned when another order already
// holds the delivery key for a code.
var ErrCodeInUse = stdErrors.New("order code handed off by another order")

// Publisher is the redis surface the channel needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) (int64, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// Redis publishes envelopes on a pub/sub channel. Each order code is handed
// off at most once per idempotency window, and the key records which order
// holds it.
type Redis struct {
	pub     Publisher
	channel string
	ttl     time.Duration
}

func NewRedis(pub Publisher, channel string, ttl time.Duration) *Redis {
	if channel == "" {
		channel = "orders"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Redis{pub: pub, channel: channel, ttl: ttl}
}

func (r *Redis) Protocol() string {
	return ProtocolRedis
}

// Send publishes env. A repeat send of the same order succeeds without
// publishing again; a different order carrying the same code is a state
// conflict. Zero receivers count as an unconfirmed hand-off.
func (r *Redis) Send(ctx context.Context, env Envelope) error {
	if env.Code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "envelope code required")
	}
	if env.OrderID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "envelope order id required")
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding envelope")
	}

	key := r.pub.IdempotencyKey(idempotencyScope, env.Code)
	fresh, err := r.reserve(ctx, key, env.OrderID)
	if err != nil || !fresh {
		return err
	}

	receivers, err := r.pub.Publish(ctx, r.channel, string(payload))
	if err != nil {
		_ = r.pub.Del(ctx, key)
		return pkgerrors.Wrap(pkgerrors.CodeDeliveryFailed, err, "publishing order")
	}
	if receivers == 0 {
		_ = r.pub.Del(ctx, key)
		return pkgerrors.New(pkgerrors.CodeDeliveryFailed, "no listener received the order").
			WithDetails(map[string]any{"channel": r.channel})
	}
	return nil
}

// reserve claims key for orderID. It reports false with a nil error when the
// same order already holds the key.
func (r *Redis) reserve(ctx context.Context, key, orderID string) (bool, error) {
	fresh, err := r.pub.SetNX(ctx, key, orderID, r.ttl)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDeliveryFailed, err, "reserving delivery key")
	}
	if fresh {
		return true, nil
	}

	holder, found, err := r.pub.Get(ctx, key)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDeliveryFailed, err, "reading delivery key")
	}
	switch {
	case !found:
		// Expired or released between the two calls.
		return false, pkgerrors.New(pkgerrors.CodeDeliveryFailed, "delivery key changed while reserving")
	case holder != orderID:
		return false, pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrCodeInUse, "order code already used").
			WithDetails(map[string]any{"key": key})
	}
	return false, nil
}
