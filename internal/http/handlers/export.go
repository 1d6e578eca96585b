package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/shelfwise/library-be/internal/http/respond"
	"github.com/shelfwise/library-be/internal/middleware"
	"github.com/shelfwise/library-be/internal/models"
	"github.com/shelfwise/library-be/internal/storage"
)

// ExportHandler streams catalog and user listings as CSV attachments.
type ExportHandler struct {
	users storage.UserStore
	books storage.BookStore
	log   zerolog.Logger
}

// NewExportHandler constructs the handler.
func NewExportHandler(users storage.UserStore, books storage.BookStore, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{users: users, books: books, log: log}
}

// Register attaches export routes to the authenticated router.
func (h *ExportHandler) Register(r chi.Router) {
	r.Group(func(staff chi.Router) {
		staff.Use(middleware.RequireRole(models.RoleAdmin, models.RoleLibrarian))
		staff.Get("/export/books", h.handleBooks)
	})
	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		admin.Get("/export/users", h.handleUsers)
	})
}

func (h *ExportHandler) handleBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.ListBooks(r.Context(), storage.BookFilter{})
	if err != nil {
		h.log.Error().Err(err).Msg("export books")
		respond.Error(w, http.StatusInternalServerError, "failed to export books")
		return
	}

	records := [][]string{{"id", "title", "author", "isbn", "category", "available", "created_at"}}
	for _, b := range books {
		records = append(records, []string{
			strconv.FormatInt(b.ID, 10),
			b.Title,
			b.Author,
			b.ISBN,
			b.Category,
			strconv.FormatBool(b.Available),
			b.CreatedAt.Format(time.RFC3339),
		})
	}
	h.writeCSV(w, "books.csv", records)
}

func (h *ExportHandler) handleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("export users")
		respond.Error(w, http.StatusInternalServerError, "failed to export users")
		return
	}

	records := [][]string{{"id", "name", "email", "role", "created_at"}}
	for _, u := range users {
		records = append(records, []string{
			strconv.FormatInt(u.ID, 10),
			u.Name,
			u.Email,
			u.Role,
			u.CreatedAt.Format(time.RFC3339),
		})
	}
	h.writeCSV(w, "users.csv", records)
}

func (h *ExportHandler) writeCSV(w http.ResponseWriter, filename string, records [][]string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	writer := csv.NewWriter(w)
	if err := writer.WriteAll(records); err != nil {
		h.log.Error().Err(err).Str("filename", filename).Msg("write csv")
	}
}
