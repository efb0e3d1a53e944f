package authsvc

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkrupp/tasktracker/internal/domain"
)

// DefaultTokenDuration is the validity window used when none is configured.
const DefaultTokenDuration = 24 * time.Hour

// ErrEmptySecret is returned when a TokenService is built without a signing secret.
var ErrEmptySecret = errors.New("empty token signing secret")

// TokenService issues and verifies HS256-signed bearer tokens.
// An instance is immutable after construction and safe for concurrent use.
type TokenService struct {
	secret []byte
	window time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenService returns a TokenService signing with secret. Tokens are valid for
// window (DefaultTokenDuration if not positive) measured with now (time.Now if nil).
func NewTokenService(secret string, window time.Duration, now func() time.Time) (*TokenService, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	if window <= 0 {
		window = DefaultTokenDuration
	}

	if now == nil {
		now = time.Now
	}

	return &TokenService{
		secret: []byte(secret),
		window: window,
		now:    now,
		// Expiry is checked by Verify against the injected clock.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// Issue signs a token for subject.
func (s *TokenService) Issue(subject int64) (string, domain.Claims, error) {
	now := s.now().UTC().Truncate(time.Second)
	claims := domain.Claims{
		Subject:   subject,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.window),
	}

	//nolint:exhaustruct
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(subject, 10),
		IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", domain.Claims{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, claims, nil
}

// Verify returns the subject of a valid token. Failures are ErrInvalidAuthToken joined
// with ErrMalformedToken, ErrTokenExpired or ErrBadSignature. An expired token is reported
// as expired whether or not its signature matches.
func (s *TokenService) Verify(tokenString string) (int64, error) {
	var (
		claims jwt.RegisteredClaims
		sigErr error
	)

	if _, err := s.parser.ParseWithClaims(tokenString, &claims, s.key); err != nil {
		if !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return 0, invalidToken(domain.ErrMalformedToken, err)
		}

		sigErr = err
	}

	if claims.ExpiresAt == nil {
		return 0, invalidToken(domain.ErrMalformedToken, errors.New("missing exp claim"))
	}

	if !s.now().Before(claims.ExpiresAt.Time) {
		return 0, invalidToken(domain.ErrTokenExpired, nil)
	}

	if sigErr != nil {
		return 0, invalidToken(domain.ErrBadSignature, sigErr)
	}

	subject, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, invalidToken(domain.ErrMalformedToken, fmt.Errorf("parse sub claim: %w", err))
	}

	return subject, nil
}

func (s *TokenService) key(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}

	return s.secret, nil
}

func invalidToken(cause, err error) error {
	return errors.Join(domain.ErrInvalidAuthToken, cause, err)
}
