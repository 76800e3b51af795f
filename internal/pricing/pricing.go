package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Sauce is one selectable flavor for special orders.
type Sauce struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Premium bool   `json:"premium"`
}

// DefaultSauces lists the shop's flavors in display order. Premium sauces carry
// the surcharge; adding a flavor only touches this table.
var DefaultSauces = []Sauce{
	{Key: "bbq", Label: "BBQ"},
	{Key: "buffalo", Label: "Buffalo"},
	{Key: "mango-habanero", Label: "Mango Habanero", Premium: true},
	{Key: "parmesano", Label: "Parmesano", Premium: true},
	{Key: "limon-pimienta", Label: "Limón Pimienta", Premium: true},
}

var (
	DefaultBase      = decimal.NewFromInt(25)
	DefaultSurcharge = decimal.NewFromInt(5)
)

// Rules maps a special-item sauce to its unit price.
type Rules struct {
	base      decimal.Decimal
	surcharge decimal.Decimal
	order     []Sauce
	sauces    map[string]Sauce
}

// NewRules builds a pricing table. Later duplicates of a key replace earlier ones.
func NewRules(base, surcharge decimal.Decimal, sauces []Sauce) *Rules {
	r := &Rules{
		base:      base,
		surcharge: surcharge,
		sauces:    make(map[string]Sauce, len(sauces)),
	}
	for _, sauce := range sauces {
		key := normalizeKey(sauce.Key)
		if key == "" {
			continue
		}
		sauce.Key = key
		if _, seen := r.sauces[key]; !seen {
			r.order = append(r.order, sauce)
		} else {
			for i := range r.order {
				if r.order[i].Key == key {
					r.order[i] = sauce
				}
			}
		}
		r.sauces[key] = sauce
	}
	return r
}

// Default returns the shop's standard rules: base 25, premium surcharge 5.
func Default() *Rules {
	return NewRules(DefaultBase, DefaultSurcharge, DefaultSauces)
}

// UnitPrice returns base plus the surcharge when the sauce is flagged premium.
// Unknown keys price at base.
func (r *Rules) UnitPrice(key string) decimal.Decimal {
	sauce, ok := r.sauces[normalizeKey(key)]
	if ok && sauce.Premium {
		return r.base.Add(r.surcharge)
	}
	return r.base
}

// Lookup returns the sauce registered under key.
func (r *Rules) Lookup(key string) (Sauce, bool) {
	sauce, ok := r.sauces[normalizeKey(key)]
	return sauce, ok
}

// Sauces returns the registered sauces in display order.
func (r *Rules) Sauces() []Sauce {
	return append([]Sauce(nil), r.order...)
}

func (r *Rules) Base() decimal.Decimal {
	return r.base
}

func (r *Rules) Surcharge() decimal.Decimal {
	return r.surcharge
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Label returns the display label for key, falling back to the key itself.
func (r *Rules) Label(key string) string {
	if sauce, ok := r.Lookup(key); ok {
		return sauce.Label
	}
	return strings.TrimSpace(key)
}
