package authsvc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mkrupp/tasktracker/internal/domain"
	"github.com/mkrupp/tasktracker/internal/infra/logging"
	"github.com/mkrupp/tasktracker/internal/repo/user"
)

// AuthConfig contains configuration parameters for the authentication service.
type AuthConfig struct {
	// JWTSecret is the HMAC secret tokens are signed with
	JWTSecret string `env:"JWT_SECRET"`

	// TokenDuration is the validity window of auth tokens
	TokenDuration time.Duration `env:"TOKEN_DURATION" envDefault:"24h"`

	// BcryptCost is the bcrypt work factor for new password digests
	BcryptCost int `env:"BCRYPT_COST" envDefault:"12"`
}

// Hasher derives and checks password digests.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

var _ Hasher = (*PasswordHasher)(nil)

// AuthService provides user registration and login.
type AuthService struct {
	Config   AuthConfig
	UserRepo user.Repository
	Hasher   Hasher
	Tokens   *TokenService
	Log      logging.Logger

	// digest checked for unknown emails, so their login costs as much as a wrong password
	decoyOnce   sync.Once
	decoyDigest string
}

// NewAuthService creates a new AuthService with the given user repository factory and configuration.
// Returns an error if the secret is missing or the user repository cannot be created.
func NewAuthService(repoFactory user.RepositoryFactory, cfg AuthConfig) (*AuthService, error) {
	log := logging.GetLogger("svc.authsvc.auth_service")

	tokens, err := NewTokenService(cfg.JWTSecret, cfg.TokenDuration, time.Now)
	if err != nil {
		return nil, fmt.Errorf("new token service: %w", err)
	}

	userRepo, err := repoFactory()
	if err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}

	return &AuthService{
		Config:   cfg,
		UserRepo: userRepo,
		Hasher:   NewPasswordHasher(cfg.BcryptCost),
		Tokens:   tokens,
		Log:      log,
	}, nil
}

// Register creates a new user account and returns a token for it.
// Returns a ValidationError for malformed input and ErrUserAlreadyExists if the
// username or email is taken.
func (s *AuthService) Register(
	ctx context.Context,
	req domain.RegisterRequest,
) (_ domain.AuthTokenResponse, err error) {
	log := s.Log.With(logging.Group("user", "username", req.Username))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "register user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}()

	if err := domain.Validate(req); err != nil {
		return domain.AuthTokenResponse{}, err
	}

	digest, err := s.Hasher.Hash(req.Password)
	if err != nil {
		return domain.AuthTokenResponse{}, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.UserRepo.CreateUser(ctx, req.Username, req.Email, digest)
	if err != nil {
		return domain.AuthTokenResponse{}, fmt.Errorf("create user: %w", err)
	}

	log = s.Log.With(logging.Group("user", "username", req.Username, "id", id))

	return s.issue(id)
}

// Login authenticates a user by email and password and returns a token.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (_ domain.AuthTokenResponse, err error) {
	log := s.Log

	defer func() {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrValidation):
			log.DebugContext(ctx, "login rejected", "error", err)
		case err != nil:
			log.ErrorContext(ctx, "login failed", "error", err)
		default:
			log.DebugContext(ctx, "login successful")
		}
	}()

	if err := domain.Validate(req); err != nil {
		return domain.AuthTokenResponse{}, err
	}

	usr, err := s.UserRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.Hasher.Verify(req.Password, s.decoy())

			return domain.AuthTokenResponse{}, errors.Join(domain.ErrInvalidCredentials, err)
		}

		return domain.AuthTokenResponse{}, fmt.Errorf("get user: %w", err)
	}

	log = log.With(logging.Group("user", "id", usr.ID))

	if !s.Hasher.Verify(req.Password, usr.PasswordHash) {
		return domain.AuthTokenResponse{}, domain.ErrInvalidCredentials
	}

	return s.issue(usr.ID)
}

func (s *AuthService) decoy() string {
	s.decoyOnce.Do(func() {
		// a failed Hash leaves the digest empty, which Verify rejects just as fast
		s.decoyDigest, _ = s.Hasher.Hash("decoy password for unknown accounts")
	})

	return s.decoyDigest
}

// Verify implements the bearer token check used by the authorizing middleware.
func (s *AuthService) Verify(token string) (int64, error) {
	return s.Tokens.Verify(token) //nolint:wrapcheck
}

func (s *AuthService) issue(subject int64) (domain.AuthTokenResponse, error) {
	token, _, err := s.Tokens.Issue(subject)
	if err != nil {
		return domain.AuthTokenResponse{}, fmt.Errorf("issue token: %w", err)
	}

	return domain.AuthTokenResponse{Token: token, UserID: subject}, nil
}
