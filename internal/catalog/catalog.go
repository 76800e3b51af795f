package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/entrealas/orderdesk/pkg/errors"
)

// Item is a purchasable menu entry. Items are immutable once loaded.
type Item struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Category groups items in display order.
type Category struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// Catalog is the read-only menu shared by every session.
type Catalog struct {
	categories []Category
	index      map[string]Item
}

// New builds a catalog, rejecting duplicate ids and negative prices.
func New(categories []Category) (*Catalog, error) {
	c := &Catalog{
		categories: make([]Category, 0, len(categories)),
		index:      make(map[string]Item),
	}
	for _, category := range categories {
		name := strings.TrimSpace(category.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
		}
		items := make([]Item, 0, len(category.Items))
		for _, item := range category.Items {
			if item.ID == "" {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item in category %q has no id", name))
			}
			if _, dup := c.index[item.ID]; dup {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate catalog id %q", item.ID))
			}
			if item.UnitPrice.IsNegative() {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("catalog item %q has negative price", item.ID))
			}
			item.Category = name
			c.index[item.ID] = item
			items = append(items, item)
		}
		c.categories = append(c.categories, Category{Name: name, Items: items})
	}
	return c, nil
}

// Lookup returns the item for id. A miss is not an error; callers ignore it.
func (c *Catalog) Lookup(id string) (Item, bool) {
	if c == nil {
		return Item{}, false
	}
	item, ok := c.index[id]
	return item, ok
}

// Categories returns a copy of the catalog in display order.
func (c *Catalog) Categories() []Category {
	if c == nil {
		return nil
	}
	out := make([]Category, len(c.categories))
	for i, category := range c.categories {
		out[i] = Category{
			Name:  category.Name,
			Items: append([]Item(nil), category.Items...),
		}
	}
	return out
}

// Len reports how many items the catalog holds.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.index)
}
