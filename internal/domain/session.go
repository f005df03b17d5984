package domain

import "time"

// Session is an opaque authentication token bound to a user.
// Sessions are read-only after creation: there is no refresh or sliding
// expiry, and a session dies lazily once its expiry timestamp passes.
type Session struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt int64 // epoch seconds
	CreatedAt time.Time
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt <= now.Unix()
}
