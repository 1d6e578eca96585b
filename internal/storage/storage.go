package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shelfwise/library-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict (duplicate email or ISBN).
var ErrAlreadyExists = errors.New("record already exists")

// ErrBookUnavailable indicates the book is already lent out.
var ErrBookUnavailable = errors.New("book unavailable")

// ErrBorrowingClosed indicates the borrowing was already returned.
var ErrBorrowingClosed = errors.New("borrowing already returned")

// ErrReferenced indicates a delete was blocked by referencing records.
var ErrReferenced = errors.New("record referenced by other records")

// BookFilter narrows ListBooks results.
type BookFilter struct {
	Available *bool
	Search    string
}

// UserUpdate is a partial update; nil fields are left untouched.
type UserUpdate struct {
	Name         *string
	Email        *string
	Role         *string
	PasswordHash *string
}

// BookUpdate is a partial update; nil fields are left untouched.
type BookUpdate struct {
	Title     *string
	Author    *string
	ISBN      *string
	Category  *string
	Available *bool
	CoverURL  *string
}

// DashboardStats aggregates the counters shown on staff dashboards.
type DashboardStats struct {
	TotalUsers     int64
	TotalBooks     int64
	BooksBorrowed  int64
	BooksAvailable int64
}

// UserStore captures persistence operations on users.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByID(ctx context.Context, id int64) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id int64, upd UserUpdate) (models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// BookStore captures persistence operations on the catalog.
type BookStore interface {
	CreateBook(ctx context.Context, book models.Book) (models.Book, error)
	FindBookByID(ctx context.Context, id int64) (models.Book, error)
	ListBooks(ctx context.Context, filter BookFilter) ([]models.Book, error)
	UpdateBook(ctx context.Context, id int64, upd BookUpdate) (models.Book, error)
	DeleteBook(ctx context.Context, id int64) error
}

// BorrowingStore captures the borrowing ledger and its workflow. CreateBorrowing
// and ReturnBorrowing must be atomic with the book availability flip: no reader
// may observe an open borrowing on an available book or the reverse.
type BorrowingStore interface {
	// CreateBorrowing opens a loan. It fails with ErrNotFound when the book or
	// user is missing and ErrBookUnavailable when the book is already lent out;
	// of two concurrent calls for one book exactly one succeeds.
	CreateBorrowing(ctx context.Context, userID, bookID int64, borrowedAt, dueDate time.Time) (models.Borrowing, error)
	// ReturnBorrowing closes a loan, computes the fine at ratePerDay, and makes
	// the book available again. A second return fails with ErrBorrowingClosed.
	ReturnBorrowing(ctx context.Context, id int64, returnedAt time.Time, ratePerDay float64) (models.Borrowing, error)
	FindBorrowingByID(ctx context.Context, id int64) (models.Borrowing, error)
	ListBorrowings(ctx context.Context) ([]models.Borrowing, error)
	ListBorrowingsByUser(ctx context.Context, userID int64) ([]models.Borrowing, error)
}

// StatsStore captures dashboard aggregates.
type StatsStore interface {
	Stats(ctx context.Context) (DashboardStats, error)
	RecentBorrowings(ctx context.Context, limit int) ([]models.Borrowing, error)
}

// Store is the full persistence boundary consumed by the HTTP layer.
type Store interface {
	UserStore
	BookStore
	BorrowingStore
	StatsStore
}
