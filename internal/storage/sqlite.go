package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"bollette/internal/core"
)

// SQLiteStore implements Store on a local SQLite file. Column names follow
// the wire convention (due_date, is_paid, series_id); the mapping to the
// camel-cased domain fields happens entirely in the scan and bind helpers
// below.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, core.ErrMissingConfiguration
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", core.ErrNetworkFailure)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const billColumns = "id, name, amount, due_date, is_paid, is_recurring, frequency, category, series_id"

// SelectAll implements Store.
func (s *SQLiteStore) SelectAll(ctx context.Context) (core.Collection, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+billColumns+" FROM bills ORDER BY due_date ASC, name ASC")
	if err != nil {
		return nil, remoteFailure("select bills", err)
	}
	defer rows.Close()

	var bills core.Collection
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, remoteFailure("scan bill row", err)
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, remoteFailure("iterate bill rows", err)
	}

	return bills, nil
}

// Insert implements Store. Each row is inserted individually; SQLite assigns
// the identifiers, which are adopted into the returned copies.
func (s *SQLiteStore) Insert(ctx context.Context, bills []core.Bill) ([]core.Bill, error) {
	out := make([]core.Bill, 0, len(bills))
	for _, bill := range bills {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO bills (name, amount, due_date, is_paid, is_recurring, frequency, category, series_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			bill.Name,
			bill.Amount.StringFixed(2),
			bill.DueDate.String(),
			bill.Paid,
			bill.Recurring,
			nullableFrequency(bill),
			string(bill.Category),
			nullableString(bill.SeriesID),
		)
		if err != nil {
			return nil, remoteFailure("insert bill", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, remoteFailure("read inserted bill id", err)
		}
		bill.ID = strconv.FormatInt(id, 10)
		out = append(out, bill)
	}

	slog.InfoContext(ctx, "Bills inserted",
		"count", len(out),
		"series_id", seriesOf(out))

	return out, nil
}

// Update implements Store.
func (s *SQLiteStore) Update(ctx context.Context, bill core.Bill) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bills
		 SET name = ?, amount = ?, due_date = ?, is_paid = ?, is_recurring = ?,
		     frequency = ?, category = ?, series_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		bill.Name,
		bill.Amount.StringFixed(2),
		bill.DueDate.String(),
		bill.Paid,
		bill.Recurring,
		nullableFrequency(bill),
		string(bill.Category),
		nullableString(bill.SeriesID),
		bill.ID,
	)
	if err != nil {
		return remoteFailure("update bill", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return remoteFailure("read update result", err)
	}
	if affected == 0 {
		return fmt.Errorf("update bill %s: %w", bill.ID, core.ErrNotFound)
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM bills WHERE id = ?", id)
	if err != nil {
		return remoteFailure("delete bill", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return remoteFailure("read delete result", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete bill %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// DeleteSeriesTail implements Store. Due dates are stored as YYYY-MM-DD text,
// so lexicographic comparison is date comparison.
func (s *SQLiteStore) DeleteSeriesTail(ctx context.Context, seriesID string, after core.Date) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM bills WHERE series_id = ? AND due_date > ?",
		seriesID, after.String())
	if err != nil {
		return 0, remoteFailure("delete series tail", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, remoteFailure("read series tail result", err)
	}

	slog.InfoContext(ctx, "Series tail deleted",
		"series_id", seriesID,
		"after", after.String(),
		"removed", affected)

	return affected, nil
}

// DeleteMatchingTail implements Store using the legacy name+amount heuristic
// for series that predate series ids.
func (s *SQLiteStore) DeleteMatchingTail(ctx context.Context, name string, amount decimal.Decimal, after core.Date) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bills
		 WHERE is_recurring = 1
		   AND LOWER(TRIM(name)) = LOWER(TRIM(?))
		   AND amount = ?
		   AND due_date > ?`,
		name, amount.StringFixed(2), after.String())
	if err != nil {
		return 0, remoteFailure("delete matching tail", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, remoteFailure("read matching tail result", err)
	}

	slog.InfoContext(ctx, "Legacy series tail deleted",
		"name", name,
		"after", after.String(),
		"removed", affected)

	return affected, nil
}

// scanBill maps one wire row onto the domain model.
func scanBill(rows *sql.Rows) (core.Bill, error) {
	var (
		id        int64
		name      string
		amountStr string
		dueDate   string
		paid      bool
		recurring bool
		frequency sql.NullInt64
		category  string
		seriesID  sql.NullString
	)
	if err := rows.Scan(&id, &name, &amountStr, &dueDate, &paid, &recurring, &frequency, &category, &seriesID); err != nil {
		return core.Bill{}, err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return core.Bill{}, fmt.Errorf("parse amount %q: %w", amountStr, err)
	}
	due, err := core.ParseDate(dueDate)
	if err != nil {
		return core.Bill{}, fmt.Errorf("parse due date %q: %w", dueDate, err)
	}

	bill := core.Bill{
		ID:        strconv.FormatInt(id, 10),
		Name:      name,
		Amount:    amount,
		DueDate:   due,
		Paid:      paid,
		Recurring: recurring,
		Category:  core.Category(category),
	}
	if frequency.Valid {
		bill.Frequency = core.Frequency(frequency.Int64)
	}
	if seriesID.Valid {
		bill.SeriesID = seriesID.String
	}
	return bill, nil
}

func nullableFrequency(b core.Bill) any {
	if !b.Recurring {
		return nil
	}
	return int64(b.Frequency)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func seriesOf(bills []core.Bill) string {
	if len(bills) == 0 {
		return ""
	}
	return bills[0].SeriesID
}
