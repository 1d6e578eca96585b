package handlers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shelfwise/library-be/internal/models"
	"github.com/shelfwise/library-be/internal/storage"
)

// memStore is an in-memory storage.Store used by handler tests. It mirrors
// the Postgres store's semantics, including the workflow's all-or-nothing
// behavior, with a single mutex standing in for transactions.
type memStore struct {
	mu            sync.Mutex
	users         map[int64]models.User
	books         map[int64]models.Book
	borrowings    map[int64]models.Borrowing
	nextUser      int64
	nextBook      int64
	nextBorrowing int64
}

var _ storage.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[int64]models.User),
		books:      make(map[int64]models.Book),
		borrowings: make(map[int64]models.Borrowing),
	}
}

func (m *memStore) CreateUser(_ context.Context, user models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == user.Email {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	m.nextUser++
	user.ID = m.nextUser
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	m.users[user.ID] = user
	return user, nil
}

func (m *memStore) FindUserByID(_ context.Context, id int64) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (m *memStore) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (m *memStore) ListUsers(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]models.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (m *memStore) UpdateUser(_ context.Context, id int64, upd storage.UserUpdate) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	if upd.Email != nil {
		for _, other := range m.users {
			if other.ID != id && other.Email == *upd.Email {
				return models.User{}, storage.ErrAlreadyExists
			}
		}
		user.Email = *upd.Email
	}
	if upd.Name != nil {
		user.Name = *upd.Name
	}
	if upd.Role != nil {
		user.Role = *upd.Role
	}
	if upd.PasswordHash != nil {
		user.PasswordHash = *upd.PasswordHash
	}
	user.UpdatedAt = time.Now()
	m.users[id] = user
	return user, nil
}

func (m *memStore) DeleteUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return storage.ErrNotFound
	}
	for _, b := range m.borrowings {
		if b.UserID == id {
			return storage.ErrReferenced
		}
	}
	delete(m.users, id)
	return nil
}

func (m *memStore) CreateBook(_ context.Context, book models.Book) (models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.books {
		if existing.ISBN == book.ISBN {
			return models.Book{}, storage.ErrAlreadyExists
		}
	}
	m.nextBook++
	book.ID = m.nextBook
	book.Available = true
	book.CreatedAt = time.Now()
	m.books[book.ID] = book
	return book, nil
}

func (m *memStore) FindBookByID(_ context.Context, id int64) (models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[id]
	if !ok {
		return models.Book{}, storage.ErrNotFound
	}
	return book, nil
}

func (m *memStore) ListBooks(_ context.Context, filter storage.BookFilter) ([]models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	term := strings.ToLower(strings.TrimSpace(filter.Search))
	var books []models.Book
	for _, book := range m.books {
		if filter.Available != nil && book.Available != *filter.Available {
			continue
		}
		if term != "" && !matchesBook(book, term) {
			continue
		}
		books = append(books, book)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].CreatedAt.After(books[j].CreatedAt) })
	return books, nil
}

func matchesBook(book models.Book, term string) bool {
	for _, field := range []string{book.Title, book.Author, book.ISBN, book.Category} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func (m *memStore) UpdateBook(_ context.Context, id int64, upd storage.BookUpdate) (models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[id]
	if !ok {
		return models.Book{}, storage.ErrNotFound
	}
	if upd.ISBN != nil {
		for _, other := range m.books {
			if other.ID != id && other.ISBN == *upd.ISBN {
				return models.Book{}, storage.ErrAlreadyExists
			}
		}
		book.ISBN = *upd.ISBN
	}
	if upd.Title != nil {
		book.Title = *upd.Title
	}
	if upd.Author != nil {
		book.Author = *upd.Author
	}
	if upd.Category != nil {
		book.Category = *upd.Category
	}
	if upd.Available != nil {
		book.Available = *upd.Available
	}
	if upd.CoverURL != nil {
		book.CoverURL = upd.CoverURL
	}
	m.books[id] = book
	return book, nil
}

func (m *memStore) DeleteBook(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[id]; !ok {
		return storage.ErrNotFound
	}
	for _, b := range m.borrowings {
		if b.BookID == id {
			return storage.ErrReferenced
		}
	}
	delete(m.books, id)
	return nil
}

func (m *memStore) CreateBorrowing(_ context.Context, userID, bookID int64, borrowedAt, dueDate time.Time) (models.Borrowing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[bookID]
	if !ok {
		return models.Borrowing{}, storage.ErrNotFound
	}
	if !book.Available {
		return models.Borrowing{}, storage.ErrBookUnavailable
	}
	if _, ok := m.users[userID]; !ok {
		return models.Borrowing{}, storage.ErrNotFound
	}

	book.Available = false
	m.books[bookID] = book

	m.nextBorrowing++
	borrowing := models.Borrowing{
		ID:         m.nextBorrowing,
		UserID:     userID,
		BookID:     bookID,
		BorrowedAt: borrowedAt,
		DueDate:    dueDate,
	}
	m.borrowings[borrowing.ID] = borrowing
	return borrowing, nil
}

func (m *memStore) ReturnBorrowing(_ context.Context, id int64, returnedAt time.Time, ratePerDay float64) (models.Borrowing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	borrowing, ok := m.borrowings[id]
	if !ok {
		return models.Borrowing{}, storage.ErrNotFound
	}
	if borrowing.Returned() {
		return models.Borrowing{}, storage.ErrBorrowingClosed
	}

	fine := models.LateFine(borrowing.DueDate, returnedAt, ratePerDay)
	borrowing.ReturnedAt = &returnedAt
	borrowing.Fine = &fine
	m.borrowings[id] = borrowing

	book := m.books[borrowing.BookID]
	book.Available = true
	m.books[borrowing.BookID] = book

	return borrowing, nil
}

func (m *memStore) FindBorrowingByID(_ context.Context, id int64) (models.Borrowing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	borrowing, ok := m.borrowings[id]
	if !ok {
		return models.Borrowing{}, storage.ErrNotFound
	}
	return borrowing, nil
}

func (m *memStore) ListBorrowings(_ context.Context) ([]models.Borrowing, error) {
	return m.listBorrowings(nil, 0), nil
}

func (m *memStore) ListBorrowingsByUser(_ context.Context, userID int64) ([]models.Borrowing, error) {
	return m.listBorrowings(&userID, 0), nil
}

func (m *memStore) RecentBorrowings(_ context.Context, limit int) ([]models.Borrowing, error) {
	return m.listBorrowings(nil, limit), nil
}

func (m *memStore) listBorrowings(userID *int64, limit int) []models.Borrowing {
	m.mu.Lock()
	defer m.mu.Unlock()

	var borrowings []models.Borrowing
	for _, b := range m.borrowings {
		if userID != nil && b.UserID != *userID {
			continue
		}
		if user, ok := m.users[b.UserID]; ok {
			u := user
			b.User = &u
		}
		if book, ok := m.books[b.BookID]; ok {
			k := book
			b.Book = &k
		}
		borrowings = append(borrowings, b)
	}
	sort.Slice(borrowings, func(i, j int) bool {
		return borrowings[i].BorrowedAt.After(borrowings[j].BorrowedAt)
	})
	if limit > 0 && len(borrowings) > limit {
		borrowings = borrowings[:limit]
	}
	return borrowings
}

func (m *memStore) Stats(_ context.Context) (storage.DashboardStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := storage.DashboardStats{
		TotalUsers: int64(len(m.users)),
		TotalBooks: int64(len(m.books)),
	}
	for _, b := range m.borrowings {
		if !b.Returned() {
			stats.BooksBorrowed++
		}
	}
	for _, book := range m.books {
		if book.Available {
			stats.BooksAvailable++
		}
	}
	return stats, nil
}
