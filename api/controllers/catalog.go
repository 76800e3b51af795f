package controllers

import (
	"net/http"

	"github.com/entrealas/orderdesk/api/responses"
	"github.com/entrealas/orderdesk/internal/catalog"
	"github.com/entrealas/orderdesk/internal/pricing"
)

type catalogResponse struct {
	Categories []catalog.Category `json:"categories"`
}

type saucesResponse struct {
	Base      string        `json:"base"`
	Surcharge string        `json:"surcharge"`
	Sauces    []pricedSauce `json:"sauces"`
}

type pricedSauce struct {
	pricing.Sauce
	UnitPrice string `json:"unit_price"`
}

func CatalogList(menu *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, catalogResponse{Categories: menu.Categories()})
	}
}

// SauceList returns the special-builder flavors with their resolved unit prices.
func SauceList(rules *pricing.Rules) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sauces := rules.Sauces()
		out := saucesResponse{
			Base:      rules.Base().StringFixed(2),
			Surcharge: rules.Surcharge().StringFixed(2),
			Sauces:    make([]pricedSauce, 0, len(sauces)),
		}
		for _, s := range sauces {
			out.Sauces = append(out.Sauces, pricedSauce{Sauce: s, UnitPrice: rules.UnitPrice(s.Key).StringFixed(2)})
		}
		responses.WriteSuccess(w, out)
	}
}
