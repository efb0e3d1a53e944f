package domain

import (
	"errors"
	"time"
)

var (
	// ErrUserAlreadyExists is returned when trying to create a user with an existing username or email.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUsernameTaken is joined with ErrUserAlreadyExists when the username collides.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrEmailTaken is joined with ErrUserAlreadyExists when the email collides.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUserNotFound is returned when looking up a non-existent user.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when the email/password combination is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User represents a registered account.
type User struct {
	ID           int64     // Unique identifier, assigned by the store
	Username     string    // Unique login name
	Email        string    // Unique email address
	PasswordHash string    // bcrypt digest, never the raw password
	CreatedAt    time.Time // Time of account creation
}

// RegisterRequest is the payload accepted by the registration endpoint.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32,username"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest is the payload accepted by the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}
