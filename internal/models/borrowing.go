package models

import "time"

// Borrowing links a user to a book for a bounded loan period. A nil
// ReturnedAt means the loan is still open; once set the record is terminal.
type Borrowing struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	BookID     int64      `json:"book_id"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	DueDate    time.Time  `json:"due_date"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	Fine       *float64   `json:"fine,omitempty"`

	User *User `json:"user,omitempty"`
	Book *Book `json:"book,omitempty"`
}

// Returned reports whether the loan has been closed.
func (b Borrowing) Returned() bool {
	return b.ReturnedAt != nil
}

// LateFine computes the fine owed for a loan returned at returnedAt against
// dueDate, billed at ratePerDay per late day. Partial days round up, so one
// second past the due date already costs a full day.
func LateFine(dueDate, returnedAt time.Time, ratePerDay float64) float64 {
	if !returnedAt.After(dueDate) {
		return 0
	}
	late := returnedAt.Sub(dueDate)
	days := int64(late / (24 * time.Hour))
	if late%(24*time.Hour) > 0 {
		days++
	}
	return float64(days) * ratePerDay
}
