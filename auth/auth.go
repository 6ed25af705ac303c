// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid session token")
)

const (
	electionIDChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ElectionIDLength = 6

	// RoleAdmin is the only role that can hold a session today.
	RoleAdmin = "admin"
)

// GenerateElectionID creates a short, human-typeable election code such as "K7Q2ZD".
// Uniqueness against existing elections is the caller's job.
func GenerateElectionID() (string, error) {
	b := make([]byte, ElectionIDLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate election ID: %w", err)
	}
	for i := range b {
		// 256 % 36 leaves a small bias that is irrelevant for a lookup code
		b[i] = electionIDChars[int(b[i])%len(electionIDChars)]
	}
	return string(b), nil
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckAdminCredentials compares a login attempt against the configured admin.
func CheckAdminCredentials(username, password, wantUsername, passwordHash string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(wantUsername)) == 1
	// Always run bcrypt so a wrong username costs the same as a wrong password
	passErr := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password))
	if !userOK || passErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueSession creates a signed session token for an authenticated admin.
func IssueSession(username, secret string, ttl time.Duration) (string, Session, error) {
	now := time.Now()
	session := Session{
		Subject:   username,
		Role:      RoleAdmin,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	claims := sessionClaims{
		Role: session.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", Session{}, fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, session, nil
}

// ParseSession validates a session token and returns the session it carries.
func ParseSession(tokenString, secret string) (Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid || claims.Role != RoleAdmin {
		return Session{}, ErrInvalidToken
	}

	session := Session{
		Subject: claims.Subject,
		Role:    claims.Role,
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}
