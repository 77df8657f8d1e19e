package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shorturl/internal/entity"
)

const uniqueViolationErrCode = "23505"

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolationErrCode
}

type urlDB struct {
	ShortCode   string    `db:"short_code"`
	OriginalURL string    `db:"original_url"`
	AccessCount int64     `db:"access_count"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (u *urlDB) toEntity() *entity.URL {
	return &entity.URL{
		ShortCode:   u.ShortCode,
		OriginalURL: u.OriginalURL,
		URLStats: entity.URLStats{
			AccessCount: u.AccessCount,
		},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// URLRepository stores URL records in the urls table.
// Every method is a single statement, so each call is atomic on its own.
type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{db: db}
}

// Save inserts a new record. A taken short code yields entity.ErrShortCodeExists.
func (r *URLRepository) Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.Save"
	const query = `INSERT INTO urls(short_code, original_url) VALUES ($1, $2) RETURNING *`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, shortCode, originalURL); err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to insert into urls table: %w", op, err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.RetrieveByShortCode"
	const query = `SELECT * FROM urls WHERE short_code = $1`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from urls table: %w", op, err)
	}

	return url.toEntity(), nil
}

// RetrieveByOriginalURL returns the oldest record pointing at originalURL.
func (r *URLRepository) RetrieveByOriginalURL(ctx context.Context, originalURL string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.RetrieveByOriginalURL"
	const query = `SELECT * FROM urls WHERE original_url = $1 ORDER BY created_at LIMIT 1`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, originalURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from urls table: %w", op, err)
	}

	return url.toEntity(), nil
}

// RetrieveAndUpdateStats increments the access counter in place and returns the updated row.
func (r *URLRepository) RetrieveAndUpdateStats(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.RetrieveAndUpdateStats"
	const query = `UPDATE urls SET access_count = access_count + 1 WHERE short_code = $1 RETURNING *`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get and update urls table row: %w", op, err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) Update(ctx context.Context, shortCode, originalURL string, updatedAt time.Time) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.Update"
	const query = `UPDATE urls SET original_url = $1, updated_at = $2 WHERE short_code = $3 RETURNING *`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, originalURL, updatedAt, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update urls table row: %w", op, err)
	}

	return url.toEntity(), nil
}

// Remove deletes the record for shortCode. Removing an absent code succeeds.
func (r *URLRepository) Remove(ctx context.Context, shortCode string) error {
	const op = "adapter.repository.postgres.URLRepository.Remove"
	const query = `DELETE FROM urls WHERE short_code = $1`

	if _, err := r.db.ExecContext(ctx, query, shortCode); err != nil {
		return fmt.Errorf("%s: failed to delete from urls table: %w", op, err)
	}

	return nil
}
