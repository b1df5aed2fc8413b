package domain

import "time"

// Session is the last successful authentication of a chat user.
type Session struct {
	Name            string    `json:"name"`
	Role            Role      `json:"role"`
	Phone4          string    `json:"phone4"`
	AuthenticatedAt time.Time `json:"authenticated_at"`
}

// SessionFromPerson builds the session recorded after authentication.
func SessionFromPerson(p Person, now time.Time) Session {
	return Session{
		Name:            p.Name,
		Role:            p.Role,
		Phone4:          p.Phone4,
		AuthenticatedAt: now,
	}
}

// Expired reports whether the session is older than ttl. A zero ttl never expires.
func (s Session) Expired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(s.AuthenticatedAt) >= ttl
}
