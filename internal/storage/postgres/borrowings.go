package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shelfwise/library-be/internal/models"
	"github.com/shelfwise/library-be/internal/storage"
)

const borrowingColumns = `id, user_id, book_id, borrowed_at, due_date, returned_at, fine`

// CreateBorrowing opens a loan inside a single transaction. The conditional
// availability flip doubles as the concurrency guard: of two racing calls for
// one book, the transaction that locks the row first wins and the other
// observes zero affected rows.
func (s *Store) CreateBorrowing(ctx context.Context, userID, bookID int64, borrowedAt, dueDate time.Time) (models.Borrowing, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Borrowing{}, fmt.Errorf("begin borrow tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE books SET available = FALSE WHERE id = $1 AND available = TRUE`, bookID)
	if err != nil {
		return models.Borrowing{}, fmt.Errorf("reserve book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, bookID).Scan(&exists); err != nil {
			return models.Borrowing{}, fmt.Errorf("check book: %w", err)
		}
		if !exists {
			return models.Borrowing{}, storage.ErrNotFound
		}
		return models.Borrowing{}, storage.ErrBookUnavailable
	}

	query := `
		INSERT INTO borrowings (user_id, book_id, borrowed_at, due_date)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + borrowingColumns
	row := tx.QueryRow(ctx, query, userID, bookID, borrowedAt, dueDate)
	borrowing, err := scanBorrowing(row)
	if err != nil {
		// A foreign key violation here means the user vanished.
		if errors.Is(mapPgError(err), storage.ErrReferenced) {
			return models.Borrowing{}, storage.ErrNotFound
		}
		return models.Borrowing{}, fmt.Errorf("insert borrowing: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Borrowing{}, fmt.Errorf("commit borrow tx: %w", err)
	}
	return borrowing, nil
}

// ReturnBorrowing closes a loan inside a single transaction. The row lock
// serializes concurrent return attempts; the open-state check runs under it
// so a second return always fails with ErrBorrowingClosed.
func (s *Store) ReturnBorrowing(ctx context.Context, id int64, returnedAt time.Time, ratePerDay float64) (models.Borrowing, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Borrowing{}, fmt.Errorf("begin return tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+borrowingColumns+` FROM borrowings WHERE id = $1 FOR UPDATE`, id)
	borrowing, err := scanBorrowing(row)
	if err != nil {
		return models.Borrowing{}, err
	}
	if borrowing.Returned() {
		return models.Borrowing{}, storage.ErrBorrowingClosed
	}

	fine := models.LateFine(borrowing.DueDate, returnedAt, ratePerDay)
	if _, err := tx.Exec(ctx, `UPDATE borrowings SET returned_at = $2, fine = $3 WHERE id = $1`, id, returnedAt, fine); err != nil {
		return models.Borrowing{}, fmt.Errorf("close borrowing: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE books SET available = TRUE WHERE id = $1`, borrowing.BookID); err != nil {
		return models.Borrowing{}, fmt.Errorf("release book: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Borrowing{}, fmt.Errorf("commit return tx: %w", err)
	}

	borrowing.ReturnedAt = &returnedAt
	borrowing.Fine = &fine
	return borrowing, nil
}

// FindBorrowingByID fetches a borrowing by id.
func (s *Store) FindBorrowingByID(ctx context.Context, id int64) (models.Borrowing, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+borrowingColumns+` FROM borrowings WHERE id = $1`, id)
	return scanBorrowing(row)
}

// ListBorrowings returns every borrowing with its user and book, newest first.
func (s *Store) ListBorrowings(ctx context.Context) ([]models.Borrowing, error) {
	return s.listBorrowings(ctx, nil, 0)
}

// ListBorrowingsByUser returns one user's borrowings with books, newest first.
func (s *Store) ListBorrowingsByUser(ctx context.Context, userID int64) ([]models.Borrowing, error) {
	return s.listBorrowings(ctx, &userID, 0)
}

// RecentBorrowings returns the latest borrow activity for dashboards.
func (s *Store) RecentBorrowings(ctx context.Context, limit int) ([]models.Borrowing, error) {
	return s.listBorrowings(ctx, nil, limit)
}

func (s *Store) listBorrowings(ctx context.Context, userID *int64, limit int) ([]models.Borrowing, error) {
	query := `
		SELECT b.id, b.user_id, b.book_id, b.borrowed_at, b.due_date, b.returned_at, b.fine,
			u.id, u.name, u.email, u.password_hash, u.role, u.created_at, u.updated_at,
			k.id, k.title, k.author, k.isbn, k.category, k.available, k.cover_url, k.created_at
		FROM borrowings b
		JOIN users u ON u.id = b.user_id
		JOIN books k ON k.id = b.book_id
	`
	var args []any
	if userID != nil {
		args = append(args, *userID)
		query += ` WHERE b.user_id = $1`
	}
	query += ` ORDER BY b.borrowed_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list borrowings: %w", err)
	}
	defer rows.Close()

	var borrowings []models.Borrowing
	for rows.Next() {
		var b models.Borrowing
		var u models.User
		var k models.Book
		err := rows.Scan(
			&b.ID, &b.UserID, &b.BookID, &b.BorrowedAt, &b.DueDate, &b.ReturnedAt, &b.Fine,
			&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt,
			&k.ID, &k.Title, &k.Author, &k.ISBN, &k.Category, &k.Available, &k.CoverURL, &k.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan borrowing: %w", err)
		}
		b.User = &u
		b.Book = &k
		borrowings = append(borrowings, b)
	}
	return borrowings, rows.Err()
}

func scanBorrowing(row pgx.Row) (models.Borrowing, error) {
	var b models.Borrowing
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.BookID,
		&b.BorrowedAt,
		&b.DueDate,
		&b.ReturnedAt,
		&b.Fine,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Borrowing{}, storage.ErrNotFound
		}
		return models.Borrowing{}, err
	}
	return b, nil
}
