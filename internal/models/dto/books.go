package dto

type CreateBookRequest struct {
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	ISBN     string  `json:"isbn"`
	Category string  `json:"category"`
	CoverURL *string `json:"cover_url"`
}

// UpdateBookRequest is a partial update: only non-nil fields are validated
// and applied.
type UpdateBookRequest struct {
	Title     *string `json:"title"`
	Author    *string `json:"author"`
	ISBN      *string `json:"isbn"`
	Category  *string `json:"category"`
	Available *bool   `json:"available"`
	CoverURL  *string `json:"cover_url"`
}
