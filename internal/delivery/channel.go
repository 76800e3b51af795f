package delivery

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Protocol identifiers reported by channels.
const (
	ProtocolDeepLink = "deeplink"
	ProtocolRedis    = "redis"
)

// Envelope is a finished order message handed to a channel.
type Envelope struct {
	OrderID  string          `json:"order_id"`
	Code     string          `json:"code"`
	Message  string          `json:"message"`
	Total    decimal.Decimal `json:"total"`
	Client   string          `json:"client,omitempty"`
	Prepared time.Time       `json:"prepared_at"`
}

// Channel transmits a formatted message. A nil error means the hand-off was
// confirmed; anything else leaves the order untouched for a manual retry.
type Channel interface {
	Protocol() string
	Send(ctx context.Context, env Envelope) error
}
