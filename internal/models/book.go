package models

import "time"

// Book is a catalog entry. Available is flipped only by the borrowing
// workflow or an explicit edit by library staff.
type Book struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	ISBN      string    `json:"isbn"`
	Category  string    `json:"category"`
	Available bool      `json:"available"`
	CoverURL  *string   `json:"cover_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
