package models

import "time"

// RateLimitRecord tracks write pressure for one (identifier, action) pair
// within a fixed window. At most one non-expired record exists per pair;
// expired records are lazily deleted and superseded.
type RateLimitRecord struct {
	ID          int64     `json:"id"`
	Identifier  string    `json:"identifier"`
	Action      string    `json:"action"`
	Count       int       `json:"count"`
	WindowStart time.Time `json:"window_start"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Expired reports whether the record's window has elapsed at the given time.
func (r *RateLimitRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
