package orders

import (
	stdErrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/entrealas/orderdesk/internal/cart"
	"github.com/entrealas/orderdesk/pkg/enums"
	pkgerrors "github.com/entrealas/orderdesk/pkg/errors"
)

// ErrEmptyCart is wrapped by the validation error returned for orders without lines.
var ErrEmptyCart = stdErrors.New("empty cart")

// Client is the optional customer contact data.
type Client struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// IsEmpty reports whether neither name nor phone were captured.
func (c Client) IsEmpty() bool {
	return c.Name == "" && c.Phone == ""
}

// Snapshot is the read copy of an order handed to rendering, formatting and persistence.
type Snapshot struct {
	ID        string            `json:"id,omitempty"`
	Code      string            `json:"code,omitempty"`
	CreatedAt *time.Time        `json:"created_at,omitempty"`
	Status    enums.OrderStatus `json:"status"`
	Client    Client            `json:"client"`
	Notes     string            `json:"notes,omitempty"`
	Lines     []cart.Line       `json:"lines"`
	Total     decimal.Decimal   `json:"total"`
}

// Check is the outcome of a successful validation.
type Check struct {
	// ConfirmationRequired asks the caller to confirm before continuing
	// because no client data was entered.
	ConfirmationRequired bool
}

// Order wraps the session cart with customer metadata and the one-time code.
type Order struct {
	cart      *cart.Cart
	codes     *CodeGenerator
	client    Client
	notes     string
	status    enums.OrderStatus
	id        string
	code      string
	createdAt time.Time
}

func New(c *cart.Cart, codes *CodeGenerator) *Order {
	if c == nil {
		c = cart.New()
	}
	if codes == nil {
		codes = NewCodeGenerator("")
	}
	return &Order{
		cart:   c,
		codes:  codes,
		status: enums.OrderStatusPending,
	}
}

func (o *Order) Cart() *cart.Cart {
	return o.cart
}

// SetClient stores trimmed contact data.
func (o *Order) SetClient(name, phone string) {
	o.client = Client{
		Name:  strings.TrimSpace(name),
		Phone: strings.TrimSpace(phone),
	}
}

func (o *Order) Client() Client {
	return o.client
}

func (o *Order) SetNotes(notes string) {
	o.notes = notes
}

func (o *Order) Notes() string {
	return o.notes
}

func (o *Order) Code() string {
	return o.code
}

// ID identifies the order across code reissues. Empty until EnsureCode.
func (o *Order) ID() string {
	return o.id
}

func (o *Order) Status() enums.OrderStatus {
	return o.status
}

// Total delegates to the cart so it can never drift from the lines.
func (o *Order) Total() decimal.Decimal {
	return o.cart.Total()
}

// EnsureCode assigns an identity, a code and a creation time the first time
// it is called. Later calls return the existing code unchanged.
func (o *Order) EnsureCode() string {
	if o.code != "" {
		return o.code
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}
	o.code, o.createdAt = o.codes.Next()
	return o.code
}

// ReissueCode draws a fresh code for an order whose code turned out to be
// taken by another order. The identity is kept.
func (o *Order) ReissueCode() string {
	if o.id == "" {
		o.id = uuid.NewString()
	}
	o.code, o.createdAt = o.codes.Next()
	return o.code
}

// Validate blocks empty orders and flags missing client data for confirmation.
func (o *Order) Validate() (Check, error) {
	if o.cart.IsEmpty() {
		return Check{}, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrEmptyCart, "add at least one product")
	}
	return Check{ConfirmationRequired: o.client.IsEmpty()}, nil
}

// Commit assigns the code if needed and returns the snapshot to persist.
// Status stays pending; only a confirmed delivery marks an order sent.
func (o *Order) Commit() Snapshot {
	o.EnsureCode()
	return o.Snapshot()
}

// SentSnapshot returns the snapshot as it looks once handed off.
func (o *Order) SentSnapshot() Snapshot {
	snap := o.Snapshot()
	snap.Status = enums.OrderStatusSent
	return snap
}

func (o *Order) Snapshot() Snapshot {
	snap := Snapshot{
		ID:     o.id,
		Code:   o.code,
		Status: o.status,
		Client: o.client,
		Notes:  o.notes,
		Lines:  o.cart.Lines(),
		Total:  o.cart.Total(),
	}
	if !o.createdAt.IsZero() {
		createdAt := o.createdAt
		snap.CreatedAt = &createdAt
	}
	return snap
}

// Reset discards the working copy and empties the cart.
func (o *Order) Reset() {
	o.cart.Clear()
	o.client = Client{}
	o.notes = ""
	o.status = enums.OrderStatusPending
	o.id = ""
	o.code = ""
	o.createdAt = time.Time{}
}

// HasWork reports whether discarding the order would lose anything.
func (o *Order) HasWork() bool {
	return !o.cart.IsEmpty() || !o.client.IsEmpty() || strings.TrimSpace(o.notes) != ""
}
