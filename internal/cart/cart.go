package cart

import (
	"github.com/shopspring/decimal"
)

// Line is one row of the working order. Quantity is always positive while the
// line exists.
type Line struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Composite bool            `json:"composite"`
}

// LineTotal returns UnitPrice * Quantity.
func (l Line) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Item is the catalog data a line is created from.
type Item struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
}

// Cart holds the lines of one session in display order. It is not safe for
// concurrent use; the owning session serializes access.
type Cart struct {
	lines []Line
}

func New() *Cart {
	return &Cart{}
}

// SetQuantity sets the absolute quantity for item.ID. A quantity of zero or
// less removes the line; a missing line is created. Returns the new total.
func (c *Cart) SetQuantity(item Item, quantity int) decimal.Decimal {
	idx := c.indexOf(item.ID)
	if quantity <= 0 {
		if idx >= 0 {
			c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
		}
		return c.Total()
	}

	if idx >= 0 {
		c.lines[idx].Quantity = quantity
		return c.Total()
	}

	c.lines = append(c.lines, Line{
		ID:        item.ID,
		Name:      item.Name,
		UnitPrice: item.UnitPrice,
		Quantity:  quantity,
	})
	return c.Total()
}

// Quantity returns the current quantity for id, zero when absent.
func (c *Cart) Quantity(id string) int {
	if idx := c.indexOf(id); idx >= 0 {
		return c.lines[idx].Quantity
	}
	return 0
}

// RemoveLine deletes the line at index. Stale indexes are ignored.
func (c *Cart) RemoveLine(index int) (Line, bool) {
	if index < 0 || index >= len(c.lines) {
		return Line{}, false
	}
	removed := c.lines[index]
	c.lines = append(c.lines[:index], c.lines[index+1:]...)
	return removed, true
}

// AddComposite appends a composite line. Composite lines are never merged.
func (c *Cart) AddComposite(line Line) decimal.Decimal {
	if line.Quantity <= 0 {
		return c.Total()
	}
	line.Composite = true
	c.lines = append(c.lines, line)
	return c.Total()
}

// Total recomputes Σ unitPrice*quantity over the current lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

// ItemCount returns Σ quantity.
func (c *Cart) ItemCount() int {
	count := 0
	for _, line := range c.lines {
		count += line.Quantity
	}
	return count
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Lines returns a copy of the lines in display order.
func (c *Cart) Lines() []Line {
	return append([]Line(nil), c.lines...)
}

func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) indexOf(id string) int {
	for i, line := range c.lines {
		if line.ID == id {
			return i
		}
	}
	return -1
}
