package special

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/entrealas/orderdesk/internal/cart"
	pkgerrors "github.com/entrealas/orderdesk/pkg/errors"
)

// DescriptionPrefix labels composite cart lines.
const DescriptionPrefix = "Pedido Especial: "

// Pricer maps a sauce key to a unit price.
type Pricer interface {
	UnitPrice(key string) decimal.Decimal
}

// Draft is a staged special item that is not in the cart yet.
type Draft struct {
	ID         int64           `json:"id"`
	SauceKey   string          `json:"sauce_key"`
	SauceLabel string          `json:"sauce_label"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	LineTotal  decimal.Decimal `json:"line_total"`
}

// Snapshot is the read-only view of a builder.
type Snapshot struct {
	Quantity int             `json:"quantity"`
	Drafts   []Draft         `json:"drafts"`
	Total    decimal.Decimal `json:"total"`
}

// Builder stages composite items: a stepper quantity plus a list of drafts.
// The stepper is Idle at zero and Staging above it.
type Builder struct {
	pricer   Pricer
	quantity int
	drafts   []Draft
	nextID   int64
	newID    func() string
}

func NewBuilder(pricer Pricer) *Builder {
	return &Builder{
		pricer: pricer,
		newID:  uuid.NewString,
	}
}

// Increment raises the stepper quantity.
func (b *Builder) Increment() int {
	b.quantity++
	return b.quantity
}

// Decrement lowers the stepper quantity, never below zero.
func (b *Builder) Decrement() int {
	if b.quantity > 0 {
		b.quantity--
	}
	return b.quantity
}

func (b *Builder) Quantity() int {
	return b.quantity
}

// CommitDraft stages the current stepper quantity with the given sauce and
// returns the new draft. On validation failure nothing changes.
func (b *Builder) CommitDraft(sauceKey, sauceLabel string) (Draft, error) {
	sauceKey = strings.TrimSpace(sauceKey)
	if sauceKey == "" || b.quantity <= 0 {
		return Draft{}, pkgerrors.New(pkgerrors.CodeValidation, "select a sauce and a valid quantity").
			WithDetails(map[string]any{"sauce_key": sauceKey, "quantity": b.quantity})
	}
	label := strings.TrimSpace(sauceLabel)
	if label == "" {
		label = sauceKey
	}

	unit := b.pricer.UnitPrice(sauceKey)
	b.nextID++
	draft := Draft{
		ID:         b.nextID,
		SauceKey:   sauceKey,
		SauceLabel: label,
		Quantity:   b.quantity,
		UnitPrice:  unit,
		LineTotal:  unit.Mul(decimal.NewFromInt(int64(b.quantity))),
	}
	b.drafts = append(b.drafts, draft)
	b.quantity = 0
	return draft, nil
}

// RemoveDraft drops the draft with id. Unknown ids are ignored.
func (b *Builder) RemoveDraft(id int64) bool {
	for i, draft := range b.drafts {
		if draft.ID == id {
			b.drafts = append(b.drafts[:i], b.drafts[i+1:]...)
			return true
		}
	}
	return false
}

// Total recomputes Σ lineTotal over the drafts.
func (b *Builder) Total() decimal.Decimal {
	total := decimal.Zero
	for _, draft := range b.drafts {
		total = total.Add(draft.LineTotal)
	}
	return total
}

func (b *Builder) HasDrafts() bool {
	return len(b.drafts) > 0
}

// FinalizeTo folds every draft into one composite line on c, then clears the
// builder. It reports false and does nothing when there are no drafts.
func (b *Builder) FinalizeTo(c *cart.Cart) (cart.Line, bool) {
	if len(b.drafts) == 0 || c == nil {
		return cart.Line{}, false
	}

	line := cart.Line{
		ID:        "special-" + b.newID(),
		Name:      b.Description(),
		UnitPrice: b.Total(),
		Quantity:  1,
		Composite: true,
	}
	c.AddComposite(line)
	b.Reset()
	return line, true
}

// Description groups draft quantities by sauce label in first-seen order.
func (b *Builder) Description() string {
	order := make([]string, 0, len(b.drafts))
	counts := make(map[string]int, len(b.drafts))
	for _, draft := range b.drafts {
		if _, seen := counts[draft.SauceLabel]; !seen {
			order = append(order, draft.SauceLabel)
		}
		counts[draft.SauceLabel] += draft.Quantity
	}

	parts := make([]string, 0, len(order))
	for _, label := range order {
		parts = append(parts, strconv.Itoa(counts[label])+" "+label)
	}
	return DescriptionPrefix + strings.Join(parts, ", ")
}

// Reset clears drafts and the stepper. Draft ids keep increasing.
func (b *Builder) Reset() {
	b.drafts = nil
	b.quantity = 0
}

func (b *Builder) Snapshot() Snapshot {
	return Snapshot{
		Quantity: b.quantity,
		Drafts:   append([]Draft{}, b.drafts...),
		Total:    b.Total(),
	}
}
