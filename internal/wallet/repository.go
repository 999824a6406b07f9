package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists records of issued passes.
type Repository interface {
	Create(ctx context.Context, rec PassRecord) error
	Get(ctx context.Context, id string) (PassRecord, error)
	MarkSaveIssued(ctx context.Context, id string, at time.Time) error
}

const passSchema = `
CREATE TABLE IF NOT EXISTS wallet_passes (
    id              TEXT PRIMARY KEY,
    class_id        TEXT NOT NULL,
    coupon_id       TEXT NOT NULL DEFAULT '',
    title           TEXT NOT NULL,
    code            TEXT NOT NULL,
    status          TEXT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL,
    save_issued_at  TIMESTAMPTZ
)`

// PostgresRepository stores pass records in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the wallet_passes table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, passSchema)
	return err
}

// Create inserts a pass record. Re-issuing an existing id keeps the first row.
func (r *PostgresRepository) Create(ctx context.Context, rec PassRecord) error {
	_, err := r.db.Exec(ctx, `INSERT INTO wallet_passes (id, class_id, coupon_id, title, code, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.ClassID, rec.CouponID, rec.Title, rec.Code, rec.Status, rec.CreatedAt.UTC())
	return err
}

// Get fetches a pass record by object id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (PassRecord, error) {
	row := r.db.QueryRow(ctx, `SELECT id, class_id, coupon_id, title, code, status, created_at, save_issued_at
        FROM wallet_passes WHERE id = $1`, id)
	var rec PassRecord
	var savedAt *time.Time
	if err := row.Scan(&rec.ID, &rec.ClassID, &rec.CouponID, &rec.Title, &rec.Code, &rec.Status, &rec.CreatedAt, &savedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PassRecord{}, ErrPassNotFound
		}
		return PassRecord{}, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	if savedAt != nil {
		t := savedAt.UTC()
		rec.SaveIssuedAt = &t
	}
	return rec, nil
}

// MarkSaveIssued records that a save URL was minted for the pass.
func (r *PostgresRepository) MarkSaveIssued(ctx context.Context, id string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE wallet_passes SET status = $2, save_issued_at = $3 WHERE id = $1`,
		id, StatusSaveTokenIssued, at.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPassNotFound
	}
	return nil
}
