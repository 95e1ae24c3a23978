package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"financeai/internal/core"

	"github.com/shopspring/decimal"
	msqlite "modernc.org/sqlite"
)

// SQLite's lower() only folds ASCII; fold lower-cases the full Unicode range
// like strings.ToLower and Postgres.
func init() {
	msqlite.MustRegisterDeterministicScalarFunction("fold", 1, func(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case string:
			return strings.ToLower(v), nil
		case []byte:
			return strings.ToLower(string(v)), nil
		default:
			return v, nil
		}
	})
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; readers share the same connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u UserRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, SQLite.FormatTime(u.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User saved to SQLite", "id", u.ID)
	return nil
}

func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (UserRecord, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`, email))
}

func (r *SQLiteRepository) UserByID(ctx context.Context, id string) (UserRecord, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?`, id))
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (UserRecord, error) {
	var (
		u       UserRecord
		created string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return UserRecord{}, ErrNotFound
		}
		return UserRecord{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(TimeLayout, created)
	return u, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, type, amount, category, description, date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, string(tx.Kind), tx.Amount.StringFixed(2), tx.Category, tx.Description,
		SQLite.FormatTime(tx.Date), SQLite.FormatTime(tx.CreatedAt), SQLite.FormatTime(tx.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"user_id", tx.UserID,
		"type", tx.Kind,
		"amount", tx.Amount.StringFixed(2),
		"category", tx.Category)
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, selectTransactions+` WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	txs, err := scanTransactions(rows)
	if err != nil {
		return core.Transaction{}, err
	}
	if len(txs) == 0 {
		return core.Transaction{}, ErrNotFound
	}
	return txs[0], nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET type = ?, amount = ?, category = ?, description = ?, date = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		string(tx.Kind), tx.Amount.StringFixed(2), tx.Category, tx.Description,
		SQLite.FormatTime(tx.Date), SQLite.FormatTime(tx.UpdatedAt), tx.ID, tx.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return expectOne(res)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return expectOne(res)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, f core.Filter) (core.Page, error) {
	where := TransactionFilter(SQLite, userID, f)
	limit, offset := Paginate(f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`+where.String(), where.Args()...).Scan(&total); err != nil {
		return core.Page{}, fmt.Errorf("count transactions: %w", err)
	}

	args := append(where.Args(), limit, offset)
	rows, err := r.db.QueryContext(ctx,
		selectTransactions+where.String()+` ORDER BY date DESC, created_at DESC, id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return core.Page{}, fmt.Errorf("list transactions: %w", err)
	}
	txs, err := scanTransactions(rows)
	if err != nil {
		return core.Page{}, err
	}
	return core.Page{Data: txs, Total: total}, nil
}

const selectTransactions = `SELECT id, user_id, type, amount, category, coalesce(description, ''), date, created_at, updated_at FROM transactions`

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	out := []core.Transaction{}
	for rows.Next() {
		var (
			tx                      core.Transaction
			kind, amount            string
			date, created, modified string
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &kind, &amount, &tx.Category, &tx.Description, &date, &created, &modified); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Kind = core.Kind(kind)
		var err error
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amount, err)
		}
		if tx.Date, err = time.Parse(TimeLayout, date); err != nil {
			return nil, fmt.Errorf("parse date %q: %w", date, err)
		}
		tx.CreatedAt, _ = time.Parse(TimeLayout, created)
		tx.UpdatedAt, _ = time.Parse(TimeLayout, modified)
		out = append(out, tx)
	}
	return out, rows.Err()
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
