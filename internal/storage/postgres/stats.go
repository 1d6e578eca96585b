package postgres

import (
	"context"
	"fmt"

	"github.com/shelfwise/library-be/internal/storage"
)

// Stats returns the counters shown on staff dashboards.
func (s *Store) Stats(ctx context.Context) (storage.DashboardStats, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM books),
			(SELECT COUNT(*) FROM borrowings WHERE returned_at IS NULL),
			(SELECT COUNT(*) FROM books WHERE available = TRUE)
	`
	var stats storage.DashboardStats
	err := s.pool.QueryRow(ctx, query).Scan(
		&stats.TotalUsers,
		&stats.TotalBooks,
		&stats.BooksBorrowed,
		&stats.BooksAvailable,
	)
	if err != nil {
		return storage.DashboardStats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	return stats, nil
}
