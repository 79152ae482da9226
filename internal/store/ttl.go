package store

import "time"

type entry struct {
	value     []byte
	expiresAt time.Time
}

// expired reports whether e is past its deadline at now. The zero deadline
// never expires.
func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}
