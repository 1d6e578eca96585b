// Command seed resets the database and loads demo users, a starter catalog,
// and one open borrowing for local development.
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelfwise/library-be/internal/auth"
	"github.com/shelfwise/library-be/internal/config"
	"github.com/shelfwise/library-be/internal/models"
	"github.com/shelfwise/library-be/internal/storage/postgres"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx := context.Background()
	store, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("init database")
	}
	defer store.Close()

	if err := store.Reset(ctx); err != nil {
		log.Fatal().Err(err).Msg("reset database")
	}

	users := []struct {
		name, email, password, role string
	}{
		{"Admin User", "admin@example.com", "admin123!", models.RoleAdmin},
		{"Librarian User", "librarian@example.com", "librarian123!", models.RoleLibrarian},
		{"Student User", "student@example.com", "student123!", models.RoleStudent},
	}

	var student models.User
	for _, u := range users {
		hash, err := auth.HashPassword(u.password)
		if err != nil {
			log.Fatal().Err(err).Msg("hash password")
		}
		created, err := store.CreateUser(ctx, models.User{
			Name:         u.name,
			Email:        u.email,
			PasswordHash: hash,
			Role:         u.role,
		})
		if err != nil {
			log.Fatal().Err(err).Str("email", u.email).Msg("create user")
		}
		if created.Role == models.RoleStudent {
			student = created
		}
		log.Info().Str("email", created.Email).Str("role", created.Role).Msg("seeded user")
	}

	books := []models.Book{
		{Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", ISBN: "9780743273565", Category: "Fiction"},
		{Title: "Nineteen Eighty-Four", Author: "George Orwell", ISBN: "9780451524935", Category: "Dystopian"},
		{Title: "To Kill a Mockingbird", Author: "Harper Lee", ISBN: "9780060935467", Category: "Fiction"},
		{Title: "Clean Code", Author: "Robert C. Martin", ISBN: "9780132350884", Category: "Programming"},
	}

	var borrowable models.Book
	for _, b := range books {
		created, err := store.CreateBook(ctx, b)
		if err != nil {
			log.Fatal().Err(err).Str("isbn", b.ISBN).Msg("create book")
		}
		if created.Title == "Nineteen Eighty-Four" {
			borrowable = created
		}
		log.Info().Str("title", created.Title).Msg("seeded book")
	}

	now := time.Now()
	borrowing, err := store.CreateBorrowing(ctx, student.ID, borrowable.ID, now, now.Add(cfg.LoanPeriod()))
	if err != nil {
		log.Fatal().Err(err).Msg("create borrowing")
	}
	log.Info().Int64("borrowing_id", borrowing.ID).Msg("seeded open borrowing")

	log.Info().Msg("seeding finished")
}
