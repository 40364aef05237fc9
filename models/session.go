package models

import "time"

// Session is the single admin login persisted under the auth key.
type Session struct {
	Token       string    `json:"token"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
	Timestamp   time.Time `json:"timestamp"`
}

// Expired reports whether the session is older than ttl at now.
func (s Session) Expired(now time.Time, ttl time.Duration) bool {
	return !now.Before(s.Timestamp.Add(ttl))
}
