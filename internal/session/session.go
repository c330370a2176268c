package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"charge-console/internal/schema"
)

// ErrExpired signals that the session's token lifetime has elapsed.
// Derived client-side from the stored expiry, not from an HTTP status.
var ErrExpired = errors.New("session expired")

// RoleOperator is the restricted tenant-scoped role. Operator sessions
// must only ever see rows belonging to their own operator id.
const RoleOperator = "operator"

// Session is the single authenticated-session context threaded through
// gateway calls and controllers, replacing ad-hoc reads of ambient
// storage.
type Session struct {
	ID           string        `json:"id"`
	Token        string        `json:"token"`
	RefreshToken string        `json:"refreshToken"`
	ExpiresAt    time.Time     `json:"expiresAt"`
	User         schema.Record `json:"user"`
	Role         string        `json:"role"`
	OperatorID   string        `json:"operatorId"`
}

// Expired reports whether the session's token lifetime has elapsed.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// IsOperator reports whether the session is tenant-restricted.
func (s *Session) IsOperator() bool {
	return s.Role == RoleOperator
}

// FromLogin builds a session from an upstream login result. The expiry
// comes from the response when present; otherwise it is decoded from
// the access token's exp claim. Operator id and role come from the
// user profile and are empty for unrestricted roles.
func FromLogin(id string, token, refreshToken, expiration string, user schema.Record) *Session {
	s := &Session{
		ID:           id,
		Token:        token,
		RefreshToken: refreshToken,
		User:         user,
	}
	if t, err := time.Parse(time.RFC3339, expiration); err == nil {
		s.ExpiresAt = t
	} else {
		s.ExpiresAt = tokenExpiry(token)
	}
	if user != nil {
		if role, ok := user["role"].(string); ok {
			s.Role = role
		}
		if s.Role == RoleOperator {
			s.OperatorID = schema.Stringify(user["operatorId"])
		}
	}
	return s
}

// tokenExpiry decodes the exp claim without verifying the signature.
// The console never trusts the token contents for authorization; the
// backend validates it on every request. A token that cannot be
// decoded yields a zero expiry, which never expires locally.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
