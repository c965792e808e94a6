package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taskflow/apiserver/internal/services"
)

// UserHandler provides the admin endpoints over accounts.
type UserHandler struct {
	users *services.UserAdminService
}

func NewUserHandler(users *services.UserAdminService) *UserHandler {
	return &UserHandler{users: users}
}

// UserRouter registers user administration routes on the given router.
func UserRouter(r chi.Router, users *services.UserAdminService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewUserHandler(users)

	r.Use(authMiddleware)
	r.Get("/", handler.ListUsers)
	r.Put("/{userID}", handler.UpdateUserRole)
	r.Delete("/{userID}", handler.DeleteUser)
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	users, err := h.users.List(r.Context(), identity)
	if err != nil {
		writeServiceError(w, err, "user not found", "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, users)
}

type UpdateUserRequest struct {
	Role string `json:"role"`
}

func (h *UserHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.users.UpdateRole(r.Context(), identity, id, req.Role)
	if err != nil {
		writeServiceError(w, err, "User not found", "failed to update user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.users.Delete(r.Context(), identity, id); err != nil {
		writeServiceError(w, err, "User not found", "failed to delete user")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "User removed"})
}
