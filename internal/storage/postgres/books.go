package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/shelfwise/library-be/internal/models"
	"github.com/shelfwise/library-be/internal/storage"
)

const bookColumns = `id, title, author, isbn, category, available, cover_url, created_at`

// CreateBook inserts a new catalog entry, available by default.
func (s *Store) CreateBook(ctx context.Context, book models.Book) (models.Book, error) {
	query := `
		INSERT INTO books (title, author, isbn, category, available, cover_url)
		VALUES ($1, $2, $3, $4, TRUE, $5)
		RETURNING ` + bookColumns
	row := s.pool.QueryRow(ctx, query, book.Title, book.Author, book.ISBN, book.Category, book.CoverURL)
	created, err := scanBook(row)
	if err != nil {
		return models.Book{}, mapPgError(err)
	}
	return created, nil
}

// FindBookByID fetches a book by id.
func (s *Store) FindBookByID(ctx context.Context, id int64) (models.Book, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
	return scanBook(row)
}

// ListBooks returns catalog entries matching the filter, newest first. The
// search term matches title, author, ISBN, and category case-insensitively.
func (s *Store) ListBooks(ctx context.Context, filter storage.BookFilter) ([]models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books`
	var conds []string
	var args []any

	if filter.Available != nil {
		args = append(args, *filter.Available)
		conds = append(conds, fmt.Sprintf("available = $%d", len(args)))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+term+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(title ILIKE $%d OR author ILIKE $%d OR isbn ILIKE $%d OR category ILIKE $%d)", n, n, n, n))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// UpdateBook applies the non-nil fields of upd and returns the updated row.
func (s *Store) UpdateBook(ctx context.Context, id int64, upd storage.BookUpdate) (models.Book, error) {
	query := `
		UPDATE books SET
			title = COALESCE($2, title),
			author = COALESCE($3, author),
			isbn = COALESCE($4, isbn),
			category = COALESCE($5, category),
			available = COALESCE($6, available),
			cover_url = COALESCE($7, cover_url)
		WHERE id = $1
		RETURNING ` + bookColumns
	row := s.pool.QueryRow(ctx, query, id, upd.Title, upd.Author, upd.ISBN, upd.Category, upd.Available, upd.CoverURL)
	updated, err := scanBook(row)
	if err != nil {
		return models.Book{}, mapPgError(err)
	}
	return updated, nil
}

// DeleteBook removes a catalog entry. Fails with ErrReferenced while
// borrowings reference the book.
func (s *Store) DeleteBook(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanBook(row pgx.Row) (models.Book, error) {
	var book models.Book
	err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.ISBN,
		&book.Category,
		&book.Available,
		&book.CoverURL,
		&book.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Book{}, storage.ErrNotFound
		}
		return models.Book{}, err
	}
	return book, nil
}
