package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SheetRepository stores named tables of string cells. Row 0 is the header.
type SheetRepository struct {
	db *DB
}

func NewSheetRepository(db *DB) *SheetRepository {
	return &SheetRepository{db: db}
}

// Replace clears tab and writes header followed by rows in one
// transaction. On error the previous contents are kept.
func (r *SheetRepository) Replace(ctx context.Context, tab string, header []string, rows [][]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sheet_rows WHERE tab = ?`, tab); err != nil {
		return fmt.Errorf("failed to clear sheet %s: %w", tab, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sheets (tab, row_count, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (tab) DO UPDATE SET
			row_count = excluded.row_count,
			updated_at = excluded.updated_at
	`, tab, len(rows), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert sheet %s: %w", tab, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO sheet_rows (tab, row_index, cells) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer stmt.Close()

	if err := insertRow(ctx, stmt, tab, 0, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := insertRow(ctx, stmt, tab, i+1, row); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sheet %s: %w", tab, err)
	}

	return nil
}

func insertRow(ctx context.Context, stmt *sql.Stmt, tab string, index int, cells []string) error {
	encoded, err := json.Marshal(cells)
	if err != nil {
		return fmt.Errorf("failed to encode row %d: %w", index, err)
	}
	if _, err := stmt.ExecContext(ctx, tab, index, string(encoded)); err != nil {
		return fmt.Errorf("failed to insert row %d: %w", index, err)
	}
	return nil
}

// Rows returns the contents of tab, header first. An unknown tab is empty.
func (r *SheetRepository) Rows(ctx context.Context, tab string) ([][]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cells
		FROM sheet_rows
		WHERE tab = ?
		ORDER BY row_index
	`, tab)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	defer rows.Close()

	table := [][]string{}
	for rows.Next() {
		var encoded string
		if err := rows.Scan(&encoded); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		var cells []string
		if err := json.Unmarshal([]byte(encoded), &cells); err != nil {
			return nil, fmt.Errorf("failed to decode row: %w", err)
		}
		table = append(table, cells)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return table, nil
}

// Stats returns the number of data rows in tab and when it was last
// replaced. A tab that was never written returns zero values.
func (r *SheetRepository) Stats(ctx context.Context, tab string) (int, *time.Time, error) {
	var count int
	var updatedAt time.Time

	err := r.db.QueryRowContext(ctx, `SELECT row_count, updated_at FROM sheets WHERE tab = ?`, tab).Scan(&count, &updatedAt)
	if err == sql.ErrNoRows {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, fmt.Errorf("failed to get sheet stats: %w", err)
	}

	return count, &updatedAt, nil
}
