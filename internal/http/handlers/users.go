package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/shelfwise/library-be/internal/auth"
	"github.com/shelfwise/library-be/internal/http/respond"
	"github.com/shelfwise/library-be/internal/middleware"
	"github.com/shelfwise/library-be/internal/models"
	"github.com/shelfwise/library-be/internal/models/dto"
	"github.com/shelfwise/library-be/internal/storage"
)

// UsersHandler owns user management (admin only) and the caller's profile.
type UsersHandler struct {
	store      storage.UserStore
	borrowings storage.BorrowingStore
	log        zerolog.Logger
}

// NewUsersHandler constructs the handler.
func NewUsersHandler(store storage.UserStore, borrowings storage.BorrowingStore, log zerolog.Logger) *UsersHandler {
	return &UsersHandler{store: store, borrowings: borrowings, log: log}
}

// Register attaches user routes to the authenticated router.
func (h *UsersHandler) Register(r chi.Router) {
	r.Get("/profile", h.handleProfile)

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		admin.Get("/users", h.handleList)
		admin.Post("/users", h.handleCreate)
		admin.Get("/users/{id}", h.handleGet)
		admin.Put("/users/{id}", h.handleUpdate)
		admin.Delete("/users/{id}", h.handleDelete)
	})
}

// handleProfile returns the caller's own user record.
func (h *UsersHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.store.FindUserByID(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.log.Error().Err(err).Int64("user_id", identity.UserID).Msg("fetch profile")
		respond.Error(w, http.StatusInternalServerError, "failed to fetch profile")
		return
	}
	respond.JSON(w, http.StatusOK, "profile fetched", user)
}

func (h *UsersHandler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list users")
		respond.Error(w, http.StatusInternalServerError, "failed to fetch users")
		return
	}
	respond.JSON(w, http.StatusOK, "users fetched", users)
}

// handleCreate lets an admin create an account with any role.
func (h *UsersHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := validateCredentials(req.Name, req.Email, req.Password); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	role := req.Role
	if role == "" {
		role = models.RoleStudent
	}
	if !models.ValidRole(role) {
		respond.Error(w, http.StatusBadRequest, "role must be ADMIN, LIBRARIAN, or STUDENT")
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: passwordHash,
		Role:         role,
	}
	created, err := h.store.CreateUser(r.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			respond.Error(w, http.StatusConflict, "email already registered")
		default:
			h.log.Error().Err(err).Msg("create user")
			respond.Error(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}
	respond.JSON(w, http.StatusCreated, "user created", created)
}

// handleGet returns a user together with their borrowing history.
func (h *UsersHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.store.FindUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.log.Error().Err(err).Int64("user_id", id).Msg("fetch user")
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}

	history, err := h.borrowings.ListBorrowingsByUser(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", id).Msg("fetch user borrowings")
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}

	respond.JSON(w, http.StatusOK, "user fetched", map[string]any{
		"user":       user,
		"borrowings": history,
	})
}

func (h *UsersHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req dto.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	upd, err := userUpdateFromRequest(req)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.store.UpdateUser(r.Context(), id, upd)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			respond.Error(w, http.StatusNotFound, "user not found")
		case errors.Is(err, storage.ErrAlreadyExists):
			respond.Error(w, http.StatusConflict, "email already in use")
		default:
			h.log.Error().Err(err).Int64("user_id", id).Msg("update user")
			respond.Error(w, http.StatusInternalServerError, "failed to update user")
		}
		return
	}
	respond.JSON(w, http.StatusOK, "user updated", updated)
}

func (h *UsersHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	identity, _ := auth.IdentityFrom(r.Context())
	if identity.UserID == id {
		respond.Error(w, http.StatusForbidden, "administrators cannot delete their own account")
		return
	}

	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			respond.Error(w, http.StatusNotFound, "user not found")
		case errors.Is(err, storage.ErrReferenced):
			respond.Error(w, http.StatusConflict, "user has borrowing records and cannot be deleted")
		default:
			h.log.Error().Err(err).Int64("user_id", id).Msg("delete user")
			respond.Error(w, http.StatusInternalServerError, "failed to delete user")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// userUpdateFromRequest validates each provided field before it is merged.
func userUpdateFromRequest(req dto.UpdateUserRequest) (storage.UserUpdate, error) {
	var upd storage.UserUpdate
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return upd, errors.New("name cannot be empty")
		}
		upd.Name = &name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			return upd, errors.New("invalid email address")
		}
		upd.Email = &email
	}
	if req.Role != nil {
		if !models.ValidRole(*req.Role) {
			return upd, errors.New("role must be ADMIN, LIBRARIAN, or STUDENT")
		}
		upd.Role = req.Role
	}
	if req.Password != nil {
		if len(strings.TrimSpace(*req.Password)) < 8 {
			return upd, errors.New("password must be at least 8 characters")
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return upd, errors.New("failed to hash password")
		}
		upd.PasswordHash = &hash
	}
	if upd.Name == nil && upd.Email == nil && upd.Role == nil && upd.PasswordHash == nil {
		return upd, errors.New("no fields provided for update")
	}
	return upd, nil
}
