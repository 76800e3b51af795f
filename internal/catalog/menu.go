package catalog

import (
	"strconv"

	"github.com/shopspring/decimal"
)

type menuEntry struct {
	name  string
	price int64
}

var defaultMenu = []struct {
	category string
	entries  []menuEntry
}{
	{"alitas", []menuEntry{
		{"Alitas Mango Habanero", 85},
		{"Alitas BBQ", 85},
		{"Alitas Buffalo", 85},
	}},
	{"boneless", []menuEntry{
		{"Boneless Mango Habanero", 75},
		{"Boneless BBQ", 75},
		{"Boneless Buffalo", 75},
	}},
	{"papas", []menuEntry{
		{"Papas Delgadas", 35},
		{"Papas Onduladas", 35},
		{"Papas con Queso", 45},
	}},
	{"bebidas", []menuEntry{
		{"Frappe Moka", 40},
		{"Frappe Oreo", 40},
		{"Frappe Fresa", 40},
		{"Refresco 600ml", 25},
		{"Agua Mineral", 20},
	}},
}

// Default returns the shop's standard menu. Ids take the form <category>-<n>.
func Default() *Catalog {
	categories := make([]Category, 0, len(defaultMenu))
	for _, group := range defaultMenu {
		items := make([]Item, 0, len(group.entries))
		for i, entry := range group.entries {
			items = append(items, Item{
				ID:        itemID(group.category, i+1),
				Name:      entry.name,
				UnitPrice: decimal.NewFromInt(entry.price),
			})
		}
		categories = append(categories, Category{Name: group.category, Items: items})
	}
	c, err := New(categories)
	if err != nil {
		panic(err)
	}
	return c
}

func itemID(category string, n int) string {
	return category + "-" + strconv.Itoa(n)
}
