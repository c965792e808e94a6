package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/taskflow/apiserver/internal/services"
	"github.com/taskflow/apiserver/internal/store"
	"github.com/taskflow/apiserver/types"
)

type contextKey string

const contextIdentityKey contextKey = "identity"

func identityFromContext(ctx context.Context) (types.Identity, error) {
	identity, ok := ctx.Value(contextIdentityKey).(types.Identity)
	if !ok || identity.UserID == "" {
		return types.Identity{}, errors.New("missing identity")
	}
	return identity, nil
}

// MessageResponse is the error/status payload shape the client expects.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}

// writeServiceError maps service-layer errors to status codes. Anything
// uncategorized becomes a 500 with the generic fallback message; internal
// error text is never echoed to the client.
func writeServiceError(w http.ResponseWriter, err error, notFoundMsg, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, store.ErrDuplicateEmail):
		writeError(w, http.StatusBadRequest, "User already exists")
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, store.ErrUnknownMember),
		errors.Is(err, store.ErrUnknownProject),
		errors.Is(err, store.ErrUnknownAssignee):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func parseIDParam(r *http.Request, name string) (string, error) {
	raw := chi.URLParam(r, name)
	if _, err := uuid.Parse(raw); err != nil {
		return "", errors.New("invalid id")
	}
	return raw, nil
}

// Healthz is the liveness probe.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Message: "ok"})
}
