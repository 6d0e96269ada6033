package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/tuitionbook/internal/models"
	"github.com/mmynk/tuitionbook/internal/storage"
)

// ListPlans returns the subscription plans in display order.
func (s *SQLiteStore) ListPlans(ctx context.Context) ([]models.Plan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT uuid, name, description, price, duration_days FROM plans ORDER BY sort, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	plans := []models.Plan{}
	for rows.Next() {
		var p models.Plan
		if err := rows.Scan(&p.UUID, &p.Name, &p.Description, &p.Price, &p.DurationDays); err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plans: %w", err)
	}
	return plans, nil
}

// GetPlan retrieves a plan by UUID.
func (s *SQLiteStore) GetPlan(ctx context.Context, planUUID string) (*models.Plan, error) {
	p := &models.Plan{}
	err := s.db.QueryRowContext(ctx,
		`SELECT uuid, name, description, price, duration_days FROM plans WHERE uuid = ?`,
		planUUID,
	).Scan(&p.UUID, &p.Name, &p.Description, &p.Price, &p.DurationDays)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: plan %s", storage.ErrNotFound, planUUID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return p, nil
}

// CreateOrder persists a pending order and assigns an order_ id.
func (s *SQLiteStore) CreateOrder(ctx context.Context, o *models.Order) error {
	if o.ID == "" {
		o.ID = "order_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:14]
	}
	if o.CreatedAt == 0 {
		o.CreatedAt = time.Now().Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO orders (id, tuition_id, plan_uuid, amount, currency, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID, o.TuitionID, o.PlanUUID, o.Amount, o.Currency, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

// GetOrder retrieves an order by id.
func (s *SQLiteStore) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	o := &models.Order{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, tuition_id, plan_uuid, amount, currency, paid, payment_id, created_at FROM orders WHERE id = ?`,
		orderID,
	).Scan(&o.ID, &o.TuitionID, &o.PlanUUID, &o.Amount, &o.Currency, &o.Paid, &o.PaymentID, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: order %s", storage.ErrNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return o, nil
}

// CompleteOrder marks the order paid and moves the tuition's expiry.
// An order can only be completed once.
func (s *SQLiteStore) CompleteOrder(ctx context.Context, orderID, paymentID string, expiresAt int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET paid = 1, payment_id = ? WHERE id = ? AND paid = 0`,
		paymentID, orderID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: order %s already paid or missing", storage.ErrConflict, orderID)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE tuitions SET expires_at = ? WHERE uuid = (SELECT tuition_id FROM orders WHERE id = ?)`,
		expiresAt, orderID,
	); err != nil {
		return fmt.Errorf("failed to extend subscription: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
