// Package identity defines the boundary to the identity provider that
// issues sessions and verifies one-time codes.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/studio"
)

// Session is what the provider hands back once a browsing context is signed in.
type Session struct {
	User        studio.Identity `json:"user"`
	AccessToken string          `json:"accessToken"`
	ExpiresAt   time.Time       `json:"expiresAt"`
}

type EventKind int

const (
	SessionEstablished EventKind = iota + 1
	SessionCleared
)

func (k EventKind) String() string {
	switch k {
	case SessionEstablished:
		return "session_established"
	case SessionCleared:
		return "session_cleared"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is a provider-originated session change. Session is nil for
// SessionCleared.
type Event struct {
	Kind    EventKind
	Session *Session
}

// Profile is the backing record refreshed after every sign-in.
type Profile struct {
	IdentityID string
	Email      string
	Name       string
	Role       studio.Role
}

// Provider is bound to a single browsing context.
type Provider interface {
	RequestCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) error
	SignInAnonymously(ctx context.Context) error
	SignOut(ctx context.Context) error
	// CurrentSession returns nil when the context has no live session.
	CurrentSession(ctx context.Context) (*Session, error)
	// Subscribe delivers session changes until the returned func is called.
	Subscribe() (<-chan Event, func())
	CreateOrRefreshProfile(ctx context.Context, p Profile) error
}

type Code string

const (
	CodeInvalidEmail    Code = "invalid_email"
	CodeInvalidCode     Code = "invalid_code"
	CodeExpiredCode     Code = "expired_code"
	CodeTooManyAttempts Code = "too_many_attempts"
	CodeUnavailable     Code = "unavailable"
)

// Error is returned by providers for every recoverable failure.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("identity: %s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("identity: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(code Code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// Message returns the user-facing text of err.
func Message(err error) string {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Message
	}
	return "Something went wrong. Please try again."
}
