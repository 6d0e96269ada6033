package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/tuitionbook/internal/models"
	"github.com/mmynk/tuitionbook/internal/storage"
)

const feeColumns = `CAST(id AS TEXT), uuid, student_id, year_month, is_paid, monthly_fees, paid_at`

func scanFee(row rowScanner) (models.Fee, error) {
	var f models.Fee
	var paid bool
	err := row.Scan(&f.ID, &f.UUID, &f.StudentID, &f.YearMonth, &paid, &f.MonthlyFees, &f.PaidAt)
	f.IsPaid = models.Flag(paid)
	return f, err
}

// ListFees returns every fee record of the tuition in insertion order.
func (s *SQLiteStore) ListFees(ctx context.Context, tuitionID string) ([]models.Fee, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+feeColumns+` FROM fees WHERE tuition_id = ? ORDER BY id`,
		tuitionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list fees: %w", err)
	}
	defer rows.Close()

	fees := []models.Fee{}
	for rows.Next() {
		f, err := scanFee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fee: %w", err)
		}
		fees = append(fees, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fees: %w", err)
	}
	return fees, nil
}

// CreateFees inserts the records in one transaction. A record for a month the
// student already has is skipped.
func (s *SQLiteStore) CreateFees(ctx context.Context, tuitionID string, fees []models.Fee) ([]models.Fee, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	created := []models.Fee{}
	for _, f := range fees {
		if f.UUID == "" {
			f.UUID = newUUID()
		}
		if f.IsPaid && f.PaidAt == 0 {
			f.PaidAt = now
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO fees (uuid, tuition_id, student_id, year_month, is_paid, monthly_fees, paid_at, created_at)
			 SELECT ?, ?, uuid, ?, ?, ?, ?, ? FROM students WHERE tuition_id = ? AND uuid = ?
			 ON CONFLICT (student_id, year_month) DO NOTHING`,
			f.UUID, tuitionID, f.YearMonth, bool(f.IsPaid), f.MonthlyFees.Float(), f.PaidAt, now,
			tuitionID, f.StudentID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert fee: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			continue
		}
		id, _ := res.LastInsertId()
		f.ID = models.ID(fmt.Sprint(id))
		created = append(created, f)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}

// MarkFeePaid flips the fee to paid. The amount is never touched.
func (s *SQLiteStore) MarkFeePaid(ctx context.Context, tuitionID, feeUUID string, paidAt int64) (*models.Fee, error) {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE fees SET is_paid = 1, paid_at = ? WHERE tuition_id = ? AND uuid = ? AND is_paid = 0`,
		paidAt, tuitionID, feeUUID,
	); err != nil {
		return nil, fmt.Errorf("failed to mark fee paid: %w", err)
	}

	f, err := scanFee(s.db.QueryRowContext(ctx,
		`SELECT `+feeColumns+` FROM fees WHERE tuition_id = ? AND uuid = ?`,
		tuitionID, feeUUID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: fee %s", storage.ErrNotFound, feeUUID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fee: %w", err)
	}
	return &f, nil
}
