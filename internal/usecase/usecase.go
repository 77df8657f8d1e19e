// Package usecase implements the short code service: deriving codes from URLs, resolving
// collisions, and the create, resolve, stats, update and delete operations over a URL
// repository.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vadimbarashkov/shorturl/internal/entity"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	defaultShortCodeLength = 6
	defaultMaxAttempts     = 10
	defaultSaltLength      = 8
)

// ErrMaxRetriesExceeded is returned when every attempt to store a short code hit a collision.
var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short code")

type urlRepository interface {
	Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error)
	RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
	RetrieveByOriginalURL(ctx context.Context, originalURL string) (*entity.URL, error)
	RetrieveAndUpdateStats(ctx context.Context, shortCode string) (*entity.URL, error)
	Update(ctx context.Context, shortCode, originalURL string, updatedAt time.Time) (*entity.URL, error)
	Remove(ctx context.Context, shortCode string) error
}

// SaltFunc returns a random string appended to a URL to move it off a taken short code.
type SaltFunc func() (string, error)

// NanoIDSalt returns a SaltFunc producing nanoid strings of the given length.
func NanoIDSalt(length int) SaltFunc {
	return func() (string, error) {
		return gonanoid.New(length)
	}
}

// Option configures a URLUseCase.
type Option func(*URLUseCase)

// WithShortCodeLength sets the number of hex characters kept from the URL hash.
func WithShortCodeLength(n int) Option {
	return func(uc *URLUseCase) {
		uc.shortCodeLength = n
	}
}

// WithMaxAttempts bounds the number of inserts ShortenURL tries before giving up.
func WithMaxAttempts(n int) Option {
	return func(uc *URLUseCase) {
		uc.maxAttempts = n
	}
}

// WithSaltFunc replaces the salt source used on collision retries.
func WithSaltFunc(fn SaltFunc) Option {
	return func(uc *URLUseCase) {
		uc.salt = fn
	}
}

// WithClock replaces the time source used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(uc *URLUseCase) {
		uc.now = now
	}
}

// WithLogger sets the logger used to report short code collisions.
func WithLogger(logger *slog.Logger) Option {
	return func(uc *URLUseCase) {
		uc.logger = logger
	}
}

// URLUseCase manages short codes on top of a URL repository.
type URLUseCase struct {
	urlRepo         urlRepository
	shortCodeLength int
	maxAttempts     int
	salt            SaltFunc
	now             func() time.Time
	logger          *slog.Logger
}

// NewURLUseCase creates a URLUseCase backed by urlRepo.
func NewURLUseCase(urlRepo urlRepository, opts ...Option) *URLUseCase {
	uc := &URLUseCase{
		urlRepo:         urlRepo,
		shortCodeLength: defaultShortCodeLength,
		maxAttempts:     defaultMaxAttempts,
		salt:            NanoIDSalt(defaultSaltLength),
		now:             time.Now,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// ShortenURL returns the record holding originalURL, creating it if needed.
// The reported bool is true only when a new record was inserted.
//
// The first insert uses the unsalted code, so a URL always lands on the same code unless
// another URL got there first. Each collision with a different URL retries with a fresh
// salt, up to the configured number of attempts.
func (uc *URLUseCase) ShortenURL(ctx context.Context, originalURL string) (*entity.URL, bool, error) {
	const op = "usecase.URLUseCase.ShortenURL"

	url, err := uc.urlRepo.RetrieveByOriginalURL(ctx, originalURL)
	if err == nil {
		return url, false, nil
	}
	if !errors.Is(err, entity.ErrURLNotFound) {
		return nil, false, fmt.Errorf("%s: failed to look up url: %w", op, err)
	}

	var salt string

	for attempt := 1; attempt <= uc.maxAttempts; attempt++ {
		if attempt > 1 {
			salt, err = uc.salt()
			if err != nil {
				return nil, false, fmt.Errorf("%s: failed to generate salt: %w", op, err)
			}
		}

		shortCode := GenerateCode(originalURL, salt, uc.shortCodeLength)

		url, err := uc.urlRepo.Save(ctx, shortCode, originalURL)
		if err == nil {
			return url, true, nil
		}
		if !errors.Is(err, entity.ErrShortCodeExists) {
			return nil, false, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		// A concurrent request may have stored the same URL under this code.
		taken, err := uc.urlRepo.RetrieveByShortCode(ctx, shortCode)
		switch {
		case err == nil && taken.OriginalURL == originalURL:
			return taken, false, nil
		case err != nil && !errors.Is(err, entity.ErrURLNotFound):
			return nil, false, fmt.Errorf("%s: failed to inspect taken short code: %w", op, err)
		}

		uc.logger.DebugContext(ctx, "short code collision",
			slog.String("op", op),
			slog.String("short_code", shortCode),
			slog.Int("attempt", attempt),
		)
	}

	return nil, false, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// ResolveShortCode returns the record for shortCode and counts the access.
// A miss returns entity.ErrURLNotFound and changes nothing.
func (uc *URLUseCase) ResolveShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ResolveShortCode"

	url, err := uc.urlRepo.RetrieveAndUpdateStats(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	return url, nil
}

// ModifyURL points shortCode at originalURL and refreshes its modification time.
func (uc *URLUseCase) ModifyURL(ctx context.Context, shortCode, originalURL string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ModifyURL"

	url, err := uc.urlRepo.Update(ctx, shortCode, originalURL, uc.now())
	if err != nil {
		return nil, fmt.Errorf("%s: failed to modify url: %w", op, err)
	}

	return url, nil
}

// DeactivateURL deletes the record for shortCode. Deleting an unknown code is not an error.
func (uc *URLUseCase) DeactivateURL(ctx context.Context, shortCode string) error {
	const op = "usecase.URLUseCase.DeactivateURL"

	if err := uc.urlRepo.Remove(ctx, shortCode); err != nil {
		return fmt.Errorf("%s: failed to deactivate url: %w", op, err)
	}

	return nil
}

// GetURLStats returns the record for shortCode without counting an access.
func (uc *URLUseCase) GetURLStats(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.GetURLStats"

	url, err := uc.urlRepo.RetrieveByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url stats: %w", op, err)
	}

	return url, nil
}
