// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"time"
)

// Session is an authenticated admin console session.
type Session struct {
	Subject   string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type contextKey int

const (
	sessionKey contextKey = iota
	voterKey
)

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}

// WithVoter stores the verified contact identity supplied by the upstream
// authentication provider.
func WithVoter(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, voterKey, identity)
}

func VoterFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(voterKey).(string)
	return id, ok && id != ""
}
