package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/shelfwise/library-be/internal/auth"
	"github.com/shelfwise/library-be/internal/http/respond"
	"github.com/shelfwise/library-be/internal/models"
	"github.com/shelfwise/library-be/internal/models/dto"
	"github.com/shelfwise/library-be/internal/storage"
)

// BorrowingsHandler owns the borrowing workflow: opening loans, listing them,
// and closing them on return.
type BorrowingsHandler struct {
	users      storage.UserStore
	borrowings storage.BorrowingStore
	loanPeriod time.Duration
	finePerDay float64
	log        zerolog.Logger
}

// NewBorrowingsHandler constructs the handler with the lending policy from
// configuration.
func NewBorrowingsHandler(users storage.UserStore, borrowings storage.BorrowingStore, loanPeriod time.Duration, finePerDay float64, log zerolog.Logger) *BorrowingsHandler {
	return &BorrowingsHandler{
		users:      users,
		borrowings: borrowings,
		loanPeriod: loanPeriod,
		finePerDay: finePerDay,
		log:        log,
	}
}

// Register attaches borrowing routes to the authenticated router.
func (h *BorrowingsHandler) Register(r chi.Router) {
	r.Get("/borrowings", h.handleList)
	r.Post("/borrowings", h.handleCreate)
	r.Put("/borrowings/{id}/return", h.handleReturn)
}

// handleList returns all borrowings for staff and only the caller's own for
// students.
func (h *BorrowingsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var (
		borrowings []models.Borrowing
		err        error
	)
	if models.PrivilegedRole(identity.Role) {
		borrowings, err = h.borrowings.ListBorrowings(r.Context())
	} else {
		borrowings, err = h.borrowings.ListBorrowingsByUser(r.Context(), identity.UserID)
	}
	if err != nil {
		h.log.Error().Err(err).Msg("list borrowings")
		respond.Error(w, http.StatusInternalServerError, "failed to fetch borrowings")
		return
	}
	respond.JSON(w, http.StatusOK, "borrowings fetched", borrowings)
}

// handleCreate opens a loan. Students may only borrow for themselves; staff
// may borrow on behalf of any user and may override the borrow and due dates.
func (h *BorrowingsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req dto.CreateBorrowingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.BookID <= 0 {
		respond.Error(w, http.StatusBadRequest, "book_id is required")
		return
	}

	userID := identity.UserID
	if req.UserID != nil {
		userID = *req.UserID
	}
	if userID != identity.UserID && !models.PrivilegedRole(identity.Role) {
		respond.Error(w, http.StatusForbidden, "students may only borrow for themselves")
		return
	}

	borrowedAt := time.Now()
	if req.BorrowedAt != nil {
		borrowedAt = *req.BorrowedAt
	}
	dueDate := borrowedAt.Add(h.loanPeriod)
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}
	if !dueDate.After(borrowedAt) {
		respond.Error(w, http.StatusBadRequest, "due date must be after borrow date")
		return
	}

	if _, err := h.users.FindUserByID(r.Context(), userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.log.Error().Err(err).Int64("user_id", userID).Msg("fetch borrower")
		respond.Error(w, http.StatusInternalServerError, "failed to create borrowing")
		return
	}

	borrowing, err := h.borrowings.CreateBorrowing(r.Context(), userID, req.BookID, borrowedAt, dueDate)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			respond.Error(w, http.StatusNotFound, "book not found")
		case errors.Is(err, storage.ErrBookUnavailable):
			respond.Error(w, http.StatusConflict, "book is currently not available")
		default:
			h.log.Error().Err(err).Int64("book_id", req.BookID).Msg("create borrowing")
			respond.Error(w, http.StatusInternalServerError, "failed to create borrowing")
		}
		return
	}
	respond.JSON(w, http.StatusCreated, "borrowing created", borrowing)
}

// handleReturn closes a loan. Only the borrower or staff may return it, and a
// closed loan cannot be returned again.
func (h *BorrowingsHandler) handleReturn(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, valid := pathID(r)
	if !valid {
		respond.Error(w, http.StatusBadRequest, "invalid borrowing id")
		return
	}

	borrowing, err := h.borrowings.FindBorrowingByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "borrowing not found")
			return
		}
		h.log.Error().Err(err).Int64("borrowing_id", id).Msg("fetch borrowing")
		respond.Error(w, http.StatusInternalServerError, "failed to return borrowing")
		return
	}
	if borrowing.UserID != identity.UserID && !models.PrivilegedRole(identity.Role) {
		respond.Error(w, http.StatusForbidden, "only the borrower or staff may return this book")
		return
	}

	returned, err := h.borrowings.ReturnBorrowing(r.Context(), id, time.Now(), h.finePerDay)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			respond.Error(w, http.StatusNotFound, "borrowing not found")
		case errors.Is(err, storage.ErrBorrowingClosed):
			respond.Error(w, http.StatusBadRequest, "book already returned")
		default:
			h.log.Error().Err(err).Int64("borrowing_id", id).Msg("return borrowing")
			respond.Error(w, http.StatusInternalServerError, "failed to return borrowing")
		}
		return
	}

	var fine float64
	if returned.Fine != nil {
		fine = *returned.Fine
	}
	respond.JSON(w, http.StatusOK, "book returned", dto.ReturnBorrowingResponse{Borrowing: returned, Fine: fine})
}
