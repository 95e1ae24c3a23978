// Package postgres is the PostgreSQL storage backend, built on pgxpool.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"financeai/internal/core"
	"financeai/internal/storage"

	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const uniqueViolation = "23505"

type Repository struct {
	pool *pgxpool.Pool
}

// Connect opens a pool, verifies it and applies pending migrations.
func Connect(ctx context.Context, url string) (*Repository, error) {
	if err := RunMigrations(url); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Repository{pool: pool}, nil
}

// RunMigrations applies the embedded schema through database/sql.
func RunMigrations(url string) error {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer db.Close()

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("create pgx migrate driver: %w", err)
	}
	return storage.Migrate(migrationsFS, "migrations", "pgx5", driver)
}

func (r *Repository) Ping(ctx context.Context) error { return r.pool.Ping(ctx) }

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) CreateUser(ctx context.Context, u storage.UserRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return storage.ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	slog.InfoContext(ctx, "User saved to Postgres", "id", u.ID)
	return nil
}

func (r *Repository) UserByEmail(ctx context.Context, email string) (storage.UserRecord, error) {
	return r.user(ctx, `SELECT id, name, email, password_hash, created_at FROM users WHERE email = $1`, email)
}

func (r *Repository) UserByID(ctx context.Context, id string) (storage.UserRecord, error) {
	return r.user(ctx, `SELECT id, name, email, password_hash, created_at FROM users WHERE id = $1`, id)
}

func (r *Repository) user(ctx context.Context, query string, arg string) (storage.UserRecord, error) {
	var u storage.UserRecord
	err := r.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.UserRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.UserRecord{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *Repository) CreateTransaction(ctx context.Context, tx core.Transaction) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO transactions (id, user_id, type, amount, category, description, date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9)`,
		tx.ID, tx.UserID, string(tx.Kind), tx.Amount.StringFixed(2), tx.Category, tx.Description,
		tx.Date.UTC(), tx.CreatedAt.UTC(), tx.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction saved to Postgres", "id", tx.ID, "user_id", tx.UserID)
	return nil
}

func (r *Repository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	rows, err := r.pool.Query(ctx, selectTransactions+` WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	txs, err := scanTransactions(rows)
	if err != nil {
		return core.Transaction{}, err
	}
	if len(txs) == 0 {
		return core.Transaction{}, storage.ErrNotFound
	}
	return txs[0], nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE transactions SET type = $1, amount = $2::numeric, category = $3, description = $4, date = $5, updated_at = $6
		 WHERE id = $7 AND user_id = $8`,
		string(tx.Kind), tx.Amount.StringFixed(2), tx.Category, tx.Description, tx.Date.UTC(), tx.UpdatedAt.UTC(),
		tx.ID, tx.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID string, f core.Filter) (core.Page, error) {
	where := storage.TransactionFilter(storage.Postgres, userID, f)
	limit, offset := storage.Paginate(f)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`+where.String(), where.Args()...).Scan(&total); err != nil {
		return core.Page{}, fmt.Errorf("count transactions: %w", err)
	}

	query := selectTransactions + where.String() +
		fmt.Sprintf(` ORDER BY date DESC, created_at DESC, id LIMIT %s OFFSET %s`, where.Placeholder(1), where.Placeholder(2))
	rows, err := r.pool.Query(ctx, query, append(where.Args(), limit, offset)...)
	if err != nil {
		return core.Page{}, fmt.Errorf("list transactions: %w", err)
	}
	txs, err := scanTransactions(rows)
	if err != nil {
		return core.Page{}, err
	}
	return core.Page{Data: txs, Total: total}, nil
}

const selectTransactions = `SELECT id, user_id, type, amount::text, category, coalesce(description, ''), date, created_at, updated_at FROM transactions`

func scanTransactions(rows pgx.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	out := []core.Transaction{}
	for rows.Next() {
		var (
			tx           core.Transaction
			kind, amount string
			date         time.Time
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &kind, &amount, &tx.Category, &tx.Description, &date, &tx.CreatedAt, &tx.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amount, err)
		}
		tx.Kind = core.Kind(kind)
		tx.Amount = d
		tx.Date = date.UTC()
		tx.CreatedAt = tx.CreatedAt.UTC()
		tx.UpdatedAt = tx.UpdatedAt.UTC()
		out = append(out, tx)
	}
	return out, rows.Err()
}
