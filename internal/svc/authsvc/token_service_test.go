package authsvc_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkrupp/tasktracker/internal/domain"
	"github.com/mkrupp/tasktracker/internal/svc/authsvc"
)

const testSecret = "test-secret"

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newTokenService(t *testing.T, secret string) (*authsvc.TokenService, *fakeClock) {
	t.Helper()

	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	svc, err := authsvc.NewTokenService(secret, time.Hour, clock.Now)
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}

	return svc, clock
}

func TestTokenService_RoundTrip(t *testing.T) {
	t.Parallel()

	svc, clock := newTokenService(t, testSecret)

	token, claims, err := svc.Issue(42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if claims.Subject != 42 || !claims.IssuedAt.Equal(clock.t) {
		t.Errorf("unexpected claims: %+v", claims)
	}

	if !claims.ExpiresAt.After(claims.IssuedAt) || claims.ExpiresAt.Sub(claims.IssuedAt) != time.Hour {
		t.Errorf("expected a one hour window, got %v..%v", claims.IssuedAt, claims.ExpiresAt)
	}

	subject, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if subject != 42 {
		t.Errorf("expected subject 42, got %d", subject)
	}
}

func TestTokenService_Expiry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{"just before expiry", time.Hour - time.Second, nil},
		{"at expiry", time.Hour, domain.ErrTokenExpired},
		{"long after expiry", 48 * time.Hour, domain.ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, clock := newTokenService(t, testSecret)

			token, _, err := svc.Issue(1)
			if err != nil {
				t.Fatalf("issue: %v", err)
			}

			clock.t = clock.t.Add(tt.elapsed)

			_, err = svc.Verify(token)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			if tt.wantErr != nil && !errors.Is(err, domain.ErrInvalidAuthToken) {
				t.Errorf("expected ErrInvalidAuthToken, got %v", err)
			}
		})
	}
}

func TestTokenService_Rejects(t *testing.T) {
	t.Parallel()

	svc, _ := newTokenService(t, testSecret)
	other, _ := newTokenService(t, "other-secret")

	valid, _, err := svc.Issue(7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	foreign, _, err := other.Issue(7)
	if err != nil {
		t.Fatalf("issue foreign: %v", err)
	}

	// The first signature character carries no padding bits, unlike the last one.
	sigStart := strings.LastIndex(valid, ".") + 1
	flipped := byte('A')
	if valid[sigStart] == 'A' {
		flipped = 'B'
	}

	tampered := valid[:sigStart] + string(flipped) + valid[sigStart+1:]

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign hs512: %v", err)
	}

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "7",
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign without exp: %v", err)
	}

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign bad subject: %v", err)
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty", "", domain.ErrMalformedToken},
		{"garbage", "not-a-token", domain.ErrMalformedToken},
		{"two segments", strings.Join(strings.Split(valid, ".")[:2], "."), domain.ErrMalformedToken},
		{"tampered signature", tampered, domain.ErrBadSignature},
		{"foreign secret", foreign, domain.ErrBadSignature},
		{"alg none", unsigned, domain.ErrBadSignature},
		{"other algorithm", hs512, domain.ErrBadSignature},
		{"missing exp", noExp, domain.ErrMalformedToken},
		{"non numeric subject", badSubject, domain.ErrMalformedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			subject, err := svc.Verify(tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			if !errors.Is(err, domain.ErrInvalidAuthToken) {
				t.Errorf("expected ErrInvalidAuthToken, got %v", err)
			}

			if subject != 0 {
				t.Errorf("expected no subject, got %d", subject)
			}
		})
	}
}

func TestTokenService_ExpiredWinsOverSignature(t *testing.T) {
	t.Parallel()

	svc, clock := newTokenService(t, testSecret)
	other, _ := newTokenService(t, "other-secret")

	foreign, _, err := other.Issue(7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clock.t = clock.t.Add(2 * time.Hour)

	if _, err := svc.Verify(foreign); !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := authsvc.NewTokenService("", time.Hour, nil); !errors.Is(err, authsvc.ErrEmptySecret) {
		t.Errorf("expected ErrEmptySecret, got %v", err)
	}
}
