package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	// AdminSubject is the token subject for admin sessions
	AdminSubject = "admin"

	// DefaultTokenTTL is how long an issued admin token stays valid
	DefaultTokenTTL = time.Hour

	tokenIssuer = "vibecode-pilot-game"
)

var (
	ErrAuthDisabled    = errors.New("admin login not configured")
	ErrBadCredentials  = errors.New("invalid credentials")
	ErrMissingToken    = errors.New("missing bearer token")
	ErrInvalidToken    = errors.New("invalid token")
	ErrUnexpectedClaim = errors.New("unexpected token subject")
)

// AdminClaims are the JWT claims carried by admin tokens.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AdminAuth guards mutating routes with HS256 bearer tokens. Tokens are
// issued in exchange for the admin password, checked against a bcrypt hash.
type AdminAuth struct {
	secret       []byte
	passwordHash []byte
	ttl          time.Duration
	now          func() time.Time
}

// NewAdminAuth creates the guard. An empty passwordHash leaves token
// validation working but disables the login endpoint.
func NewAdminAuth(secret, passwordHash string, ttl time.Duration) *AdminAuth {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &AdminAuth{
		secret:       []byte(secret),
		passwordHash: []byte(passwordHash),
		ttl:          ttl,
		now:          time.Now,
	}
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// IssueToken checks password and returns a signed token with its expiry.
func (a *AdminAuth) IssueToken(password string) (string, time.Time, error) {
	if len(a.passwordHash) == 0 {
		return "", time.Time{}, ErrAuthDisabled
	}
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return "", time.Time{}, ErrBadCredentials
	}

	now := a.now()
	exp := now.Add(a.ttl)
	claims := AdminClaims{
		Role: AdminSubject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   AdminSubject,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// ValidateToken parses and verifies a token string.
func (a *AdminAuth) ValidateToken(tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject != AdminSubject {
		return nil, ErrUnexpectedClaim
	}
	return claims, nil
}

func bearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// Middleware rejects requests without a valid admin bearer token.
func (a *AdminAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err == nil {
			_, err = a.ValidateToken(token)
		}
		if err != nil {
			RecordConnectionRejected("auth")
			w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
			writeError(w, "admin authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TokenResponse is returned by the login endpoint.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// HandleToken exchanges {"password": "..."} for a bearer token.
func (a *AdminAuth) HandleToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}

	token, exp, err := a.IssueToken(req.Password)
	switch {
	case errors.Is(err, ErrAuthDisabled):
		writeError(w, err.Error(), http.StatusServiceUnavailable)
		return
	case errors.Is(err, ErrBadCredentials):
		log.Printf("🔐 Admin login rejected from %s", GetClientIP(r))
		RecordConnectionRejected("auth")
		writeError(w, err.Error(), http.StatusUnauthorized)
		return
	case err != nil:
		writeError(w, "could not issue token", http.StatusInternalServerError)
		return
	}

	log.Printf("🔐 Admin token issued to %s", GetClientIP(r))
	writeJSON(w, http.StatusOK, TokenResponse{Token: token, ExpiresAt: exp.Unix()})
}
