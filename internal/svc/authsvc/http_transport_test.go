package authsvc_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mkrupp/tasktracker/internal/domain"
	http_ "github.com/mkrupp/tasktracker/internal/infra/transport/http"
	"github.com/mkrupp/tasktracker/internal/svc/authsvc"
)

func TestHTTPTransport(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t)
	transport := authsvc.NewHTTPTransport(svc)

	do := func(t *testing.T, path, body string) *httptest.ResponseRecorder {
		t.Helper()

		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		transport.ServeHTTP(rec, req)

		return rec
	}

	rec := do(t, "/api/auth/register", `{"username":"alice","email":"alice@x.com","password":"Secret123"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body)
	}

	var registered domain.AuthTokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&registered); err != nil {
		t.Fatalf("decode register response: %v", err)
	}

	if registered.Token == "" || registered.UserID == 0 {
		t.Fatalf("unexpected register response: %+v", registered)
	}

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "login",
			path:       "/api/auth/login",
			body:       `{"email":"alice@x.com","password":"Secret123"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "login wrong password",
			path:       "/api/auth/login",
			body:       `{"email":"alice@x.com","password":"Secret124"}`,
			wantStatus: http.StatusUnauthorized,
			wantError:  "invalid credentials",
		},
		{
			name:       "login unknown email behaves like wrong password",
			path:       "/api/auth/login",
			body:       `{"email":"mallory@x.com","password":"Secret123"}`,
			wantStatus: http.StatusUnauthorized,
			wantError:  "invalid credentials",
		},
		{
			name:       "duplicate username",
			path:       "/api/auth/register",
			body:       `{"username":"alice","email":"other@x.com","password":"Secret123"}`,
			wantStatus: http.StatusConflict,
			wantError:  "username already taken",
		},
		{
			name:       "duplicate email",
			path:       "/api/auth/register",
			body:       `{"username":"alice2","email":"alice@x.com","password":"Secret123"}`,
			wantStatus: http.StatusConflict,
			wantError:  "email already registered",
		},
		{
			name:       "malformed json",
			path:       "/api/auth/register",
			body:       `{"username":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "malformed request body",
		},
		{
			name:       "validation failure",
			path:       "/api/auth/register",
			body:       `{"username":"x","email":"nope","password":"1"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body)
			}

			if tt.wantError == "" {
				return
			}

			var body http_.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}

			if body.Error != tt.wantError {
				t.Errorf("expected error %q, got %q", tt.wantError, body.Error)
			}
		})
	}
}

func TestHTTPTransportValidationFields(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"username":"x","email":"nope","password":"1"}`))
	rec := httptest.NewRecorder()
	authsvc.NewHTTPTransport(svc).ServeHTTP(rec, req)

	var body http_.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	for _, field := range []string{"username", "email", "password"} {
		if _, ok := body.Fields[field]; !ok {
			t.Errorf("expected field %q in %v", field, body.Fields)
		}
	}
}

func TestHTTPTransportRejectsWrongMethod(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t)

	rec := httptest.NewRecorder()
	authsvc.NewHTTPTransport(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/login", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
