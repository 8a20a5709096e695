package domain

import "time"

// SessionStatus is what the authentication gate branches on.
type SessionStatus string

const (
	StatusLoading         SessionStatus = "loading"
	StatusAuthenticated   SessionStatus = "authenticated"
	StatusUnauthenticated SessionStatus = "unauthenticated"
)

// Identity provider ids accepted by sign-in.
const (
	ProviderGoogle  = "google"
	ProviderDiscord = "discord"
)

// Providers lists the sign-in providers in display order.
var Providers = []string{ProviderGoogle, ProviderDiscord}

// User is the identity attached to a session.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Image    string `json:"image,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// Session is an authenticated user session. A nil *Session means signed out.
type Session struct {
	User    User      `json:"user"`
	Expires time.Time `json:"expires"`
}

// Status derives the gate state from an optional session.
func (s *Session) Status() SessionStatus {
	if s == nil {
		return StatusUnauthenticated
	}
	return StatusAuthenticated
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return s != nil && !s.Expires.IsZero() && now.After(s.Expires)
}
