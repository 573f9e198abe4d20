package api

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// UsersHandler handles user management endpoints (managers only).
type UsersHandler struct {
	DB *sql.DB
}

type createUserRequest struct {
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Password string   `json:"password"`
	Role     string   `json:"role"`
	Regions  []string `json:"regions"`
}

type updateUserRequest struct {
	Name    string   `json:"name"`
	Role    string   `json:"role"`
	Regions []string `json:"regions"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// checkRegions requires supervisors to cover at least one region.
func checkRegions(role string, regions []string) error {
	if model.IsSupervisor(role) && len(model.ParseRegions(model.JoinRegions(regions))) == 0 {
		return fmt.Errorf("%s needs at least one region", role)
	}
	return nil
}

// recordUserActivity writes a best-effort activity entry for user management.
func recordUserActivity(ctx context.Context, db *sql.DB, actor, action, details string) {
	if err := store.RecordActivity(ctx, db, actor, action, details, model.ModuleUsers); err != nil {
		slog.Warn("failed to record activity", "action", action, "error", err)
	}
}

// targetName names a user for logs, falling back to the id.
func (h *UsersHandler) targetName(ctx context.Context, id int64) string {
	if target, _ := store.GetUser(ctx, h.DB, id); target != nil {
		return target.Username
	}
	return fmt.Sprintf("id:%d", id)
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" || req.Role == "" {
		jsonError(w, http.StatusBadRequest, "username, password, and role required")
		return
	}
	if !model.ValidRole(req.Role) {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}
	if err := checkRegions(req.Role, req.Regions); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Username, req.Name, string(hash), req.Role, req.Regions)
	if err != nil {
		writeError(w, err)
		return
	}

	actor := actorFrom(r)
	slog.Info("user created", "user", actor.Name, "new_user", req.Username, "role", req.Role, "regions", user.Regions)
	recordUserActivity(r.Context(), h.DB, actor.Name, "Created user", fmt.Sprintf("%s (%s)", user.Username, user.Role))
	jsonResponse(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	jsonResponse(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{id}.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := checkRegions(req.Role, req.Regions); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.UpdateUser(r.Context(), h.DB, id, req.Name, req.Role, req.Regions); err != nil {
		writeError(w, err)
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil || user == nil {
		jsonError(w, http.StatusInternalServerError, "failed to get user")
		return
	}

	actor := actorFrom(r)
	slog.Info("user updated", "user", actor.Name, "target_user", user.Username, "role", user.Role, "regions", user.Regions)
	recordUserActivity(r.Context(), h.DB, actor.Name, "Updated user",
		fmt.Sprintf("%s: %s %v", user.Username, user.Role, user.Regions))
	jsonResponse(w, http.StatusOK, user)
}

// ResetPassword handles PUT /api/users/{id}/password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Password == "" {
		jsonError(w, http.StatusBadRequest, "password required")
		return
	}

	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, id, string(hash)); err != nil {
		slog.Error("failed to reset password", "error", err)
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	actor := actorFrom(r)
	target := h.targetName(r.Context(), id)
	slog.Info("user password reset", "user", actor.Name, "target_user", target)
	recordUserActivity(r.Context(), h.DB, actor.Name, "Reset password", target)
	jsonMessage(w, "password reset")
}

// Delete handles DELETE /api/users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	// Prevent self-deletion.
	claims := GetClaims(r.Context())
	if claims != nil && claims.UserID == id {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	target, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if target == nil || target.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	if err := store.DeleteUser(r.Context(), h.DB, id); err != nil {
		slog.Error("failed to delete user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	actor := actorFrom(r)
	slog.Info("user deleted", "user", actor.Name, "deleted_user", target.Username)
	recordUserActivity(r.Context(), h.DB, actor.Name, "Deleted user", target.Username)
	jsonMessage(w, "user deleted")
}
