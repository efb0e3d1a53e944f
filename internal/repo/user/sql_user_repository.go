package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mkrupp/tasktracker/internal/domain"
	"github.com/mkrupp/tasktracker/internal/infra/database"
	"github.com/mkrupp/tasktracker/internal/infra/logging"
)

// SQLUserRepository implements Repository on top of a shared database pool.
type SQLUserRepository struct {
	db  *database.DB
	log logging.Logger
	now func() time.Time
}

var _ Repository = (*SQLUserRepository)(nil)

// SQLUserRepositoryFactory creates a factory function that returns a new SQLUserRepository.
// The factory function implements the RepositoryFactory type.
func SQLUserRepositoryFactory(db *database.DB) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLUserRepository(db)
	}
}

// NewSQLUserRepository creates a new SQLUserRepository backed by db.
func NewSQLUserRepository(db *database.DB) (*SQLUserRepository, error) {
	if db == nil {
		return nil, errors.New("nil database")
	}

	return &SQLUserRepository{
		db: db,
		log: logging.GetLogger("repo.user.sql_user_repository").With(
			logging.Group("db", "driver", db.Dialect.Name()),
		),
		now: time.Now,
	}, nil
}

// CreateUser implements Repository.CreateUser.
func (r *SQLUserRepository) CreateUser(
	ctx context.Context,
	username, email, passwordHash string,
) (id int64, err error) {
	p := r.db.Dialect.Placeholder

	unlock := r.db.LockWrites()
	defer unlock()

	err = r.db.QueryRowContext(ctx,
		fmt.Sprintf(
			"INSERT INTO users (username, email, password_hash, created_at) VALUES (%s, %s, %s, %s) RETURNING id",
			p(1), p(2), p(3), p(4),
		),
		username,
		email,
		passwordHash,
		r.now().UTC(),
	).Scan(&id)
	if err != nil {
		if constraint, ok := r.db.Dialect.UniqueViolation(err); ok {
			err = errors.Join(domain.ErrUserAlreadyExists, takenField(constraint), err)
		}

		return 0, fmt.Errorf("insert user: %w", err)
	}

	r.log.DebugContext(ctx, "user inserted", "user.id", id)

	return id, nil
}

// takenField maps a violated unique constraint to the field it protects.
func takenField(constraint string) error {
	switch {
	case strings.Contains(constraint, "email"):
		return domain.ErrEmailTaken
	case strings.Contains(constraint, "username"):
		return domain.ErrUsernameTaken
	default:
		return nil
	}
}

// GetUserByEmail implements Repository.GetUserByEmail.
func (r *SQLUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getUser(ctx, "email", email)
}

// GetUserByID implements Repository.GetUserByID.
func (r *SQLUserRepository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getUser(ctx, "id", id)
}

func (r *SQLUserRepository) getUser(ctx context.Context, column string, value any) (*domain.User, error) {
	var user domain.User

	err := r.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, created_at FROM users WHERE "+
			column+" = "+r.db.Dialect.Placeholder(1),
		value,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrUserNotFound, err)
		}

		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}
