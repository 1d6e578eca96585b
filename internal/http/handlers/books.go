package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/shelfwise/library-be/internal/http/respond"
	"github.com/shelfwise/library-be/internal/middleware"
	"github.com/shelfwise/library-be/internal/models"
	"github.com/shelfwise/library-be/internal/models/dto"
	"github.com/shelfwise/library-be/internal/storage"
)

// BooksHandler owns the catalog endpoints. Reads are open to every
// authenticated role; writes are restricted to staff.
type BooksHandler struct {
	store storage.BookStore
	log   zerolog.Logger
}

// NewBooksHandler constructs the handler.
func NewBooksHandler(store storage.BookStore, log zerolog.Logger) *BooksHandler {
	return &BooksHandler{store: store, log: log}
}

// Register attaches book routes to the authenticated router.
func (h *BooksHandler) Register(r chi.Router) {
	r.Get("/books", h.handleList)
	r.Get("/books/{id}", h.handleGet)

	r.Group(func(staff chi.Router) {
		staff.Use(middleware.RequireRole(models.RoleAdmin, models.RoleLibrarian))
		staff.Post("/books", h.handleCreate)
		staff.Put("/books/{id}", h.handleUpdate)
		staff.Delete("/books/{id}", h.handleDelete)
	})
}

func (h *BooksHandler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := storage.BookFilter{Search: r.URL.Query().Get("search")}
	if raw := r.URL.Query().Get("available"); raw != "" {
		available := raw == "true"
		filter.Available = &available
	}

	books, err := h.store.ListBooks(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("list books")
		respond.Error(w, http.StatusInternalServerError, "failed to fetch books")
		return
	}
	respond.JSON(w, http.StatusOK, "books fetched", books)
}

func (h *BooksHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid book id")
		return
	}

	book, err := h.store.FindBookByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "book not found")
			return
		}
		h.log.Error().Err(err).Int64("book_id", id).Msg("fetch book")
		respond.Error(w, http.StatusInternalServerError, "failed to fetch book")
		return
	}
	respond.JSON(w, http.StatusOK, "book fetched", book)
}

func (h *BooksHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Author) == "" ||
		strings.TrimSpace(req.ISBN) == "" || strings.TrimSpace(req.Category) == "" {
		respond.Error(w, http.StatusBadRequest, "title, author, isbn, and category are required")
		return
	}

	book := models.Book{
		Title:    strings.TrimSpace(req.Title),
		Author:   strings.TrimSpace(req.Author),
		ISBN:     strings.TrimSpace(req.ISBN),
		Category: strings.TrimSpace(req.Category),
		CoverURL: req.CoverURL,
	}
	created, err := h.store.CreateBook(r.Context(), book)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			respond.Error(w, http.StatusConflict, "book with this ISBN already exists")
		default:
			h.log.Error().Err(err).Msg("create book")
			respond.Error(w, http.StatusInternalServerError, "failed to create book")
		}
		return
	}
	respond.JSON(w, http.StatusCreated, "book created", created)
}

func (h *BooksHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid book id")
		return
	}

	var req dto.UpdateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	upd, err := bookUpdateFromRequest(req)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.store.UpdateBook(r.Context(), id, upd)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			respond.Error(w, http.StatusNotFound, "book not found")
		case errors.Is(err, storage.ErrAlreadyExists):
			respond.Error(w, http.StatusConflict, "book with this ISBN already exists")
		default:
			h.log.Error().Err(err).Int64("book_id", id).Msg("update book")
			respond.Error(w, http.StatusInternalServerError, "failed to update book")
		}
		return
	}
	respond.JSON(w, http.StatusOK, "book updated", updated)
}

func (h *BooksHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid book id")
		return
	}

	if err := h.store.DeleteBook(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			respond.Error(w, http.StatusNotFound, "book not found")
		case errors.Is(err, storage.ErrReferenced):
			respond.Error(w, http.StatusConflict, "book has borrowing records and cannot be deleted")
		default:
			h.log.Error().Err(err).Int64("book_id", id).Msg("delete book")
			respond.Error(w, http.StatusInternalServerError, "failed to delete book")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// bookUpdateFromRequest validates each provided field before it is merged.
func bookUpdateFromRequest(req dto.UpdateBookRequest) (storage.BookUpdate, error) {
	var upd storage.BookUpdate
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return upd, errors.New("title cannot be empty")
		}
		upd.Title = &title
	}
	if req.Author != nil {
		author := strings.TrimSpace(*req.Author)
		if author == "" {
			return upd, errors.New("author cannot be empty")
		}
		upd.Author = &author
	}
	if req.ISBN != nil {
		isbn := strings.TrimSpace(*req.ISBN)
		if isbn == "" {
			return upd, errors.New("isbn cannot be empty")
		}
		upd.ISBN = &isbn
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			return upd, errors.New("category cannot be empty")
		}
		upd.Category = &category
	}
	upd.Available = req.Available
	upd.CoverURL = req.CoverURL
	if upd.Title == nil && upd.Author == nil && upd.ISBN == nil && upd.Category == nil &&
		upd.Available == nil && upd.CoverURL == nil {
		return upd, errors.New("no fields provided for update")
	}
	return upd, nil
}
