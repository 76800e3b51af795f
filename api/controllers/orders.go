package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/entrealas/orderdesk/api/responses"
	"github.com/entrealas/orderdesk/internal/orders"
	pkgerrors "github.com/entrealas/orderdesk/pkg/errors"
	"github.com/entrealas/orderdesk/pkg/logger"
)

// OrderReader is the read side of the order repository.
type OrderReader interface {
	FindByCode(ctx context.Context, code string) (*orders.Snapshot, error)
	Stats(ctx context.Context) ([]orders.StatusStat, error)
}

func OrderStats(repo OrderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "order storage not configured"))
			return
		}
		stats, err := repo.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"stats": stats})
	}
}

func OrderByCode(repo OrderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "order storage not configured"))
			return
		}
		code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "code")))
		snap, err := repo.FindByCode(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}
