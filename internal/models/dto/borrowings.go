package dto

import (
	"time"

	"github.com/shelfwise/library-be/internal/models"
)

// CreateBorrowingRequest opens a loan. UserID defaults to the caller;
// BorrowedAt and DueDate default to now and now plus the loan period.
type CreateBorrowingRequest struct {
	UserID     *int64     `json:"user_id"`
	BookID     int64      `json:"book_id"`
	BorrowedAt *time.Time `json:"borrowed_at"`
	DueDate    *time.Time `json:"due_date"`
}

type ReturnBorrowingResponse struct {
	Borrowing models.Borrowing `json:"borrowing"`
	Fine      float64          `json:"fine"`
}
