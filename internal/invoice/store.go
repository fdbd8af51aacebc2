package invoice

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when an invoice does not exist.
var ErrNotFound = errors.New("invoice: not found")

// ErrDuplicateNumber is returned when an invoice number is already taken.
var ErrDuplicateNumber = errors.New("invoice: number already exists")

// CreateParams describes a new invoice with its items.
type CreateParams struct {
	Number   string
	Currency string
	Items    []Item
}

// Store defines the persistence operations the invoice and payment services
// rely on.
type Store interface {
	Create(ctx context.Context, arg CreateParams) (Invoice, error)
	GetByID(ctx context.Context, id uuid.UUID) (Invoice, error)
	GetByNumber(ctx context.Context, number string) (Invoice, error)
	List(ctx context.Context, limit, offset int32) ([]Invoice, int64, error)
	MarkPaid(ctx context.Context, id uuid.UUID, payload []byte) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, payload []byte) (bool, error)
}

// PGStore implements Store on a pgx connection pool with hand-written SQL.
type PGStore struct {
	Pool *pgxpool.Pool
}

// NewStore returns a Store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{Pool: pool}
}

// Create inserts the invoice and its items in one transaction.
func (s *PGStore) Create(ctx context.Context, arg CreateParams) (Invoice, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Invoice{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	total := ComputeTotal(arg.Items)
	var inv Invoice
	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (number, currency, status, total)
		VALUES ($1, $2, $3, $4)
		RETURNING id, number, currency, status, total, created_at, updated_at`,
		arg.Number, arg.Currency, StatusPending, total,
	).Scan(&inv.ID, &inv.Number, &inv.Currency, &inv.Status, &inv.Total, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Invoice{}, ErrDuplicateNumber
		}
		return Invoice{}, fmt.Errorf("insert invoice: %w", err)
	}

	for _, it := range arg.Items {
		var item Item
		err = tx.QueryRow(ctx, `
			INSERT INTO invoice_items (invoice_id, name, unit_price, qty, item_type)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, name, unit_price, qty, item_type`,
			inv.ID, it.Name, it.UnitPrice, it.Qty, it.Type,
		).Scan(&item.ID, &item.Name, &item.UnitPrice, &item.Qty, &item.Type)
		if err != nil {
			return Invoice{}, fmt.Errorf("insert invoice item: %w", err)
		}
		inv.Items = append(inv.Items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// GetByID loads one invoice with its items.
func (s *PGStore) GetByID(ctx context.Context, id uuid.UUID) (Invoice, error) {
	return s.getOne(ctx, `WHERE id = $1`, id)
}

// GetByNumber loads one invoice by its vendor-visible number.
func (s *PGStore) GetByNumber(ctx context.Context, number string) (Invoice, error) {
	return s.getOne(ctx, `WHERE number = $1`, number)
}

func (s *PGStore) getOne(ctx context.Context, where string, arg any) (Invoice, error) {
	var inv Invoice
	err := s.Pool.QueryRow(ctx, `
		SELECT id, number, currency, status, total, provider_payload, created_at, updated_at, paid_at
		FROM invoices `+where,
		arg,
	).Scan(&inv.ID, &inv.Number, &inv.Currency, &inv.Status, &inv.Total, &inv.ProviderPayload, &inv.CreatedAt, &inv.UpdatedAt, &inv.PaidAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrNotFound
		}
		return Invoice{}, err
	}

	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, unit_price, qty, item_type
		FROM invoice_items WHERE invoice_id = $1 ORDER BY created_at, id`,
		inv.ID,
	)
	if err != nil {
		return Invoice{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Name, &item.UnitPrice, &item.Qty, &item.Type); err != nil {
			return Invoice{}, err
		}
		inv.Items = append(inv.Items, item)
	}
	return inv, rows.Err()
}

// List returns a page of invoices, newest first, without item rows.
func (s *PGStore) List(ctx context.Context, limit, offset int32) ([]Invoice, int64, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, number, currency, status, total, created_at, updated_at, paid_at
		FROM invoices ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Invoice, 0, limit)
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.Currency, &inv.Status, &inv.Total, &inv.CreatedAt, &inv.UpdatedAt, &inv.PaidAt); err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM invoices`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// MarkPaid flips a pending invoice to paid. The guard on the current status
// makes redelivered notifications a no-op: the first verified settlement
// wins and later ones report no change.
func (s *PGStore) MarkPaid(ctx context.Context, id uuid.UUID, payload []byte) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE invoices
		SET status = $2, provider_payload = $3, paid_at = now(), updated_at = now()
		WHERE id = $1 AND status = $4`,
		id, StatusPaid, payload, StatusPending,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkFailed flips a pending invoice to failed.
func (s *PGStore) MarkFailed(ctx context.Context, id uuid.UUID, payload []byte) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE invoices
		SET status = $2, provider_payload = $3, updated_at = now()
		WHERE id = $1 AND status = $4`,
		id, StatusFailed, payload, StatusPending,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
