package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/entrealas/orderdesk/api/responses"
	"github.com/entrealas/orderdesk/api/validators"
	"github.com/entrealas/orderdesk/internal/session"
	pkgerrors "github.com/entrealas/orderdesk/pkg/errors"
	"github.com/entrealas/orderdesk/pkg/logger"
)

// SessionStore is the registry surface the session endpoints need.
type SessionStore interface {
	Create() *session.Session
	Get(id string) (*session.Session, error)
	Delete(id string) bool
}

func SessionCreate(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := store.Create()
		if logg != nil {
			logg.Info(logg.WithSessionID(r.Context(), s.ID()), "session.created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, s.View())
	}
}

func SessionGet(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessionFromPath(r, store)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, s.View())
	}
}

func SessionDelete(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "sessionId"))
		if !store.Delete(id) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "session not found"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SessionAction decodes one action and routes it through the session. A
// confirmation comes back as a 200 result; callers resubmit with confirmed set.
func SessionAction(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessionFromPath(r, store)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var action session.Action
		if err := validators.DecodeJSONBody(r, &action); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res, err := s.Dispatch(r.Context(), action)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, res)
	}
}

func sessionFromPath(r *http.Request, store SessionStore) (*session.Session, error) {
	id := strings.TrimSpace(chi.URLParam(r, "sessionId"))
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	return store.Get(id)
}
