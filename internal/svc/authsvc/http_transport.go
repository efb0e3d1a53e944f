package authsvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mkrupp/tasktracker/internal/domain"
	"github.com/mkrupp/tasktracker/internal/infra/logging"
	http_ "github.com/mkrupp/tasktracker/internal/infra/transport/http"
)

// HTTPTransport handles HTTP requests for the authentication service.
// It provides endpoints for user registration and login.
type HTTPTransport struct {
	authSvc *AuthService
	mux     *http.ServeMux
	log     logging.Logger
}

// NewHTTPTransport creates a new HTTPTransport instance.
// It requires an AuthService for handling authentication operations.
func NewHTTPTransport(authSvc *AuthService) *HTTPTransport {
	ht := &HTTPTransport{
		authSvc: authSvc,
		log:     logging.GetLogger("svc.authsvc.http_transport"),
	}

	ht.mux = http.NewServeMux()
	ht.mux.HandleFunc("POST /api/auth/register", ht.HandleRegister)
	ht.mux.HandleFunc("POST /api/auth/login", ht.HandleLogin)

	return ht
}

// ServeHTTP implements http.Handler and routes the auth service endpoints:
// - POST /api/auth/register: Register a new user
// - POST /api/auth/login: Login and get an auth token.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.mux.ServeHTTP(w, r)
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// HandleRegister processes user registration requests.
// Expects a JSON body with username, email and password.
func (ht *HTTPTransport) HandleRegister(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleRegister(w, r)
}

func (ht *HTTPTransport) handleRegister(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.DebugContext(ctx, "user register rejected", "error", err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}(r.Context())

	var req domain.RegisterRequest
	if err := http_.DecodeJSON(r, &req); err != nil {
		writeError(w, err)

		return err
	}

	resp, err := ht.authSvc.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)

		return fmt.Errorf("register user: %w", err)
	}

	return http_.WriteJSON(w, http.StatusCreated, resp)
}

// HandleLogin processes user login requests.
// Expects a JSON body with email and password.
// Returns an auth token on successful login.
func (ht *HTTPTransport) HandleLogin(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleLogin(w, r)
}

func (ht *HTTPTransport) handleLogin(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.DebugContext(ctx, "user login rejected", "error", err)
		} else {
			log.DebugContext(ctx, "user logged in")
		}
	}(r.Context())

	var req domain.LoginRequest
	if err := http_.DecodeJSON(r, &req); err != nil {
		writeError(w, err)

		return err
	}

	resp, err := ht.authSvc.Login(r.Context(), req)
	if err != nil {
		writeError(w, err)

		return fmt.Errorf("login user: %w", err)
	}

	return http_.WriteJSON(w, http.StatusOK, resp)
}

func writeError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError

	switch {
	case errors.As(err, &validationErr):
		http_.WriteError(w, http.StatusUnprocessableEntity, "validation failed", validationErr.Fields)
	case errors.Is(err, http_.ErrMalformedBody):
		http_.WriteError(w, http.StatusBadRequest, "malformed request body", nil)
	case errors.Is(err, domain.ErrUsernameTaken):
		http_.WriteError(w, http.StatusConflict, "username already taken", nil)
	case errors.Is(err, domain.ErrEmailTaken):
		http_.WriteError(w, http.StatusConflict, "email already registered", nil)
	case errors.Is(err, domain.ErrUserAlreadyExists):
		http_.WriteError(w, http.StatusConflict, "user already exists", nil)
	case errors.Is(err, domain.ErrInvalidCredentials):
		http_.WriteError(w, http.StatusUnauthorized, "invalid credentials", nil)
	default:
		http_.WriteError(w, http.StatusInternalServerError, "internal server error", nil)
	}
}
