// Package auth issues and checks the credentials of members and organizers.
//
// LOGIN FLOW:
//  1. A member signs in with email/password or GitHub; an organizer signs in with the
//     credentials seeded from configuration.
//  2. The service creates a server-side session and signs a JWT carrying the subject,
//     the role and the session id.
//  3. The token is set as an HttpOnly cookie (browsers) or sent as a Bearer header (tools).
//  4. RequireAuth validates the signature, then asks the session store whether the session
//     still exists. Logout deletes the session, so a stolen token dies with it.
//
// The JWT alone is stateless; the session check is what makes logout and password changes
// take effect before the token expires.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "club-portal"

// Role separates club members from organizers (admins).
type Role string

const (
	RoleMember    Role = "member"
	RoleOrganizer Role = "organizer"
)

func (r Role) Valid() bool {
	return r == RoleMember || r == RoleOrganizer
}

// Identity is what a validated token says about its bearer.
type Identity struct {
	Subject   string // user id for members, organizer id for organizers
	Role      Role
	SessionID string
	ExpiresAt time.Time
}

// TokenService signs and verifies HS256 tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. ttl should match the session TTL so the token
// and its session expire together.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token lifetime must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL is the lifetime given to tokens created by Issue.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// claims is the JWT payload. "sub" is the subject, "jti" the session id.
type claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a token for subject with the default lifetime.
func (s *TokenService) Issue(subject string, role Role, sessionID string) (string, error) {
	return s.IssueWithDuration(subject, role, sessionID, s.ttl)
}

// IssueWithDuration signs a token with a custom lifetime. Tests use negative durations to
// produce expired tokens.
func (s *TokenService) IssueWithDuration(subject string, role Role, sessionID string, d time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("auth: token subject is required")
	}
	if !role.Valid() {
		return "", fmt.Errorf("auth: unknown role %q", role)
	}

	now := time.Now()
	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses tokenStr and returns the identity it carries.
//
// The library checks the signature, expiry and issuer. WithValidMethods pins HS256 so a
// token claiming alg "none" (or an RSA key used as an HMAC secret) is rejected.
func (s *TokenService) Validate(tokenStr string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("auth: token has no subject")
	}
	if !c.Role.Valid() {
		return nil, fmt.Errorf("auth: token has unknown role %q", c.Role)
	}

	id := &Identity{Subject: c.Subject, Role: c.Role, SessionID: c.ID}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id, nil
}
