// Package entity defines the records and errors shared by the use case and adapter layers.
// A URL is one row of the urls table: a short code, the URL it resolves to, its access
// counter and the creation and modification timestamps.
package entity

import (
	"errors"
	"time"
)

var (
	// ErrShortCodeExists is returned when a short code is already taken by another record.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrURLNotFound is returned when no record matches the requested short code or URL.
	ErrURLNotFound = errors.New("url not found")
)

// URL represents a shortened URL.
type URL struct {
	ShortCode   string    // ShortCode is the primary key the original URL is reachable by.
	OriginalURL string    // OriginalURL is the target of the redirect.
	URLStats              // URLStats contains statistics about the URL.
	CreatedAt   time.Time // CreatedAt is set once when the record is inserted.
	UpdatedAt   time.Time // UpdatedAt is refreshed whenever OriginalURL changes.
}

// URLStats contains statistics related to a shortened URL.
type URLStats struct {
	AccessCount int64 // AccessCount is the number of successful redirects through the short code.
}
