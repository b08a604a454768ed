// Package repository holds the hand-written queries over Postgres. Every call
// runs under a fixed timeout; deadline and missing-row failures are mapped to
// the domain error taxonomy so callers never see raw driver errors.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crmline/intakebot/internal/domain"
)

type Queries struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func New(pool *pgxpool.Pool, timeout time.Duration) *Queries {
	return &Queries{pool: pool, timeout: timeout}
}

func (q *Queries) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, q.timeout)
}

// wrap maps driver errors onto the domain taxonomy.
func wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, domain.ErrTimeout)
	default:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistence, err)
	}
}

func (q *Queries) Ping(ctx context.Context) error {
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()
	return wrap("ping", q.pool.Ping(ctx))
}

func (q *Queries) listOptions(ctx context.Context, op, query string, args ...any) ([]domain.Option, error) {
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	rows, err := q.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var opts []domain.Option
	for rows.Next() {
		var o domain.Option
		if err := rows.Scan(&o.ID, &o.Label); err != nil {
			return nil, wrap(op, err)
		}
		opts = append(opts, o)
	}
	return opts, wrap(op, rows.Err())
}

func (q *Queries) ListRequesterKinds(ctx context.Context) ([]domain.Option, error) {
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	rows, err := q.pool.Query(ctx, `SELECT id, name, code FROM requester_kinds ORDER BY id`)
	if err != nil {
		return nil, wrap("list requester kinds", err)
	}
	defer rows.Close()

	var opts []domain.Option
	for rows.Next() {
		var o domain.Option
		if err := rows.Scan(&o.ID, &o.Label, &o.Code); err != nil {
			return nil, wrap("list requester kinds", err)
		}
		opts = append(opts, o)
	}
	return opts, wrap("list requester kinds", rows.Err())
}

func (q *Queries) ListCategories(ctx context.Context) ([]domain.Option, error) {
	return q.listOptions(ctx, "list categories",
		`SELECT id, name FROM categories ORDER BY id`)
}

func (q *Queries) ListSubcategories(ctx context.Context, categoryID int64) ([]domain.Option, error) {
	return q.listOptions(ctx, "list subcategories",
		`SELECT id, name FROM subcategories WHERE category_id = $1 ORDER BY id`, categoryID)
}

func (q *Queries) ListContactChannels(ctx context.Context) ([]domain.Option, error) {
	return q.listOptions(ctx, "list contact channels",
		`SELECT id, name FROM contact_channels ORDER BY id`)
}

func (q *Queries) ListConvenientTimes(ctx context.Context) ([]domain.Option, error) {
	return q.listOptions(ctx, "list convenient times",
		`SELECT id, name FROM convenient_times ORDER BY id`)
}

func (q *Queries) GetOperator(ctx context.Context, telegramID int64) (*domain.Operator, error) {
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	var op domain.Operator
	err := q.pool.QueryRow(ctx,
		`SELECT telegram_id, full_name, active, access_id, description
		 FROM operators WHERE telegram_id = $1`, telegramID).
		Scan(&op.TelegramID, &op.FullName, &op.Active, &op.AccessID, &op.Description)
	if err != nil {
		return nil, wrap("get operator", err)
	}
	return &op, nil
}

func (q *Queries) GetAccessLevel(ctx context.Context, id int64) (*domain.AccessLevel, error) {
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	var lvl domain.AccessLevel
	err := q.pool.QueryRow(ctx,
		`SELECT id, name, can_read, can_write, can_delete
		 FROM access_levels WHERE id = $1`, id).
		Scan(&lvl.ID, &lvl.Name, &lvl.CanRead, &lvl.CanWrite, &lvl.CanDelete)
	if err != nil {
		return nil, wrap("get access level", err)
	}
	return &lvl, nil
}
