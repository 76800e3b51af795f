package session

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/entrealas/orderdesk/internal/cart"
	"github.com/entrealas/orderdesk/internal/orders"
	"github.com/entrealas/orderdesk/internal/special"
	"github.com/entrealas/orderdesk/pkg/enums"
	pkgerrors "github.com/entrealas/orderdesk/pkg/errors"
)

// Action is one presentation-layer request. Only the fields relevant to Kind
// are read.
type Action struct {
	Kind enums.ActionKind `json:"kind" validate:"required,action_kind"`

	ItemID   string `json:"item_id,omitempty"`
	Quantity int    `json:"quantity,omitempty" validate:"gte=0,lte=999"`
	Index    *int   `json:"index,omitempty" validate:"required_if=Kind remove_line,omitempty,gte=0"`

	SauceKey   string `json:"sauce_key,omitempty" validate:"max=64"`
	SauceLabel string `json:"sauce_label,omitempty" validate:"max=64"`
	DraftID    int64  `json:"draft_id,omitempty"`

	Name  string `json:"name,omitempty" validate:"max=120"`
	Phone string `json:"phone,omitempty" validate:"max=40"`
	Notes string `json:"notes,omitempty" validate:"max=1000"`

	// Confirmed resubmits an action that previously returned a confirmation.
	Confirmed bool `json:"confirmed,omitempty"`
}

// validate rejects actions that cannot be applied without guessing.
func (a Action) validate() error {
	if !a.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown action %q", a.Kind))
	}
	if a.Kind == enums.ActionRemoveLine && a.Index == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "remove_line needs a line index").
			WithDetails(map[string]string{"index": "is required"})
	}
	return nil
}

// mutates reports whether the action changes what a prepared message would say.
func (a Action) mutates() bool {
	switch a.Kind {
	case enums.ActionSave, enums.ActionPrepareDelivery, enums.ActionConfirmDelivery,
		enums.ActionAbortDelivery, enums.ActionDeliver:
		return false
	default:
		return true
	}
}

// Confirmation asks the caller to resubmit the same action with Confirmed set.
type Confirmation struct {
	Reason  enums.ConfirmationReason `json:"reason"`
	Message string                   `json:"message"`
}

// PreparedDelivery is a formatted message waiting for hand-off confirmation.
type PreparedDelivery struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Link    string          `json:"link"`
	Total   decimal.Decimal `json:"total"`
}

// Result is what every dispatched action returns.
type Result struct {
	View         View              `json:"view"`
	Confirmation *Confirmation     `json:"confirmation,omitempty"`
	Delivery     *PreparedDelivery `json:"delivery,omitempty"`
	Saved        *orders.Snapshot  `json:"saved,omitempty"`
	Delivered    *PreparedDelivery `json:"delivered,omitempty"`
}

// NeedsConfirmation reports whether the action was held back.
func (r Result) NeedsConfirmation() bool {
	return r.Confirmation != nil
}

// View is the read-only state rendered by the presentation layer.
type View struct {
	ID            string            `json:"id"`
	Lines         []cart.Line       `json:"lines"`
	Total         decimal.Decimal   `json:"total"`
	ItemCount     int               `json:"item_count"`
	Special       special.Snapshot  `json:"special"`
	Client        orders.Client     `json:"client"`
	ClientPending bool              `json:"client_pending"`
	Notes         string            `json:"notes"`
	Code          string            `json:"code,omitempty"`
	Status        enums.OrderStatus `json:"status"`
	Delivery      *PreparedDelivery `json:"pending_delivery,omitempty"`
}
