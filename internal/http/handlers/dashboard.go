package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/shelfwise/library-be/internal/http/respond"
	"github.com/shelfwise/library-be/internal/middleware"
	"github.com/shelfwise/library-be/internal/models"
	"github.com/shelfwise/library-be/internal/storage"
)

// DashboardHandler serves the aggregate counters behind the staff dashboards.
type DashboardHandler struct {
	store storage.StatsStore
	log   zerolog.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(store storage.StatsStore, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{store: store, log: log}
}

// Register attaches dashboard routes to the authenticated router.
func (h *DashboardHandler) Register(r chi.Router) {
	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		admin.Get("/dashboard/admin", h.handleAdmin)
	})
	r.Group(func(staff chi.Router) {
		staff.Use(middleware.RequireRole(models.RoleAdmin, models.RoleLibrarian))
		staff.Get("/dashboard/librarian", h.handleLibrarian)
	})
}

type activity struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *DashboardHandler) handleAdmin(w http.ResponseWriter, r *http.Request) {
	stats, activities, ok := h.collect(w, r, 5)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, "dashboard fetched", map[string]any{
		"total_users":       stats.TotalUsers,
		"total_books":       stats.TotalBooks,
		"books_borrowed":    stats.BooksBorrowed,
		"books_available":   stats.BooksAvailable,
		"recent_activities": activities,
	})
}

func (h *DashboardHandler) handleLibrarian(w http.ResponseWriter, r *http.Request) {
	stats, activities, ok := h.collect(w, r, 10)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, "dashboard fetched", map[string]any{
		"total_books":       stats.TotalBooks,
		"books_borrowed":    stats.BooksBorrowed,
		"books_available":   stats.BooksAvailable,
		"recent_activities": activities,
	})
}

func (h *DashboardHandler) collect(w http.ResponseWriter, r *http.Request, recent int) (storage.DashboardStats, []activity, bool) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("dashboard stats")
		respond.Error(w, http.StatusInternalServerError, "failed to fetch stats")
		return storage.DashboardStats{}, nil, false
	}

	borrowings, err := h.store.RecentBorrowings(r.Context(), recent)
	if err != nil {
		h.log.Error().Err(err).Msg("recent borrowings")
		respond.Error(w, http.StatusInternalServerError, "failed to fetch stats")
		return storage.DashboardStats{}, nil, false
	}

	activities := make([]activity, 0, len(borrowings))
	for _, b := range borrowings {
		name, title := "unknown user", "unknown book"
		if b.User != nil {
			name = b.User.Name
		}
		if b.Book != nil {
			title = b.Book.Title
		}
		activities = append(activities, activity{
			ID:          b.ID,
			Description: fmt.Sprintf("%s borrowed %q", name, title),
			CreatedAt:   b.BorrowedAt,
		})
	}
	return stats, activities, true
}
