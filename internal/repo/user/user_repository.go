package user

import (
	"context"

	"github.com/mkrupp/tasktracker/internal/domain"
)

// Repository defines the interface for user data persistence.
type Repository interface {
	// CreateUser adds a new user to the repository and returns its id.
	// Returns ErrUserAlreadyExists joined with ErrUsernameTaken or ErrEmailTaken
	// if either is already in use.
	CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error)

	// GetUserByEmail retrieves a user by their email address.
	// Returns ErrUserNotFound if no such user exists.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetUserByID retrieves a user by id.
	// Returns ErrUserNotFound if no such user exists.
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func() (Repository, error)
