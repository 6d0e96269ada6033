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

// ListClasses returns the tuition's classes with their student counts.
func (s *SQLiteStore) ListClasses(ctx context.Context, tuitionID string) ([]models.Class, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT CAST(c.id AS TEXT), c.uuid, c.class_name, c.section, c.monthly_fees,
		        (SELECT COUNT(*) FROM students s WHERE s.class_id = c.uuid)
		 FROM classes c WHERE c.tuition_id = ? ORDER BY c.class_name, c.section`,
		tuitionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	defer rows.Close()

	classes := []models.Class{}
	for rows.Next() {
		var c models.Class
		if err := rows.Scan(&c.ID, &c.UUID, &c.ClassName, &c.Section, &c.MonthlyFees, &c.StudentsCount); err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate classes: %w", err)
	}
	return classes, nil
}

// GetClass retrieves one class of the tuition by UUID.
func (s *SQLiteStore) GetClass(ctx context.Context, tuitionID, classUUID string) (*models.Class, error) {
	c := &models.Class{}
	err := s.db.QueryRowContext(ctx,
		`SELECT CAST(c.id AS TEXT), c.uuid, c.class_name, c.section, c.monthly_fees,
		        (SELECT COUNT(*) FROM students s WHERE s.class_id = c.uuid)
		 FROM classes c WHERE c.tuition_id = ? AND c.uuid = ?`,
		tuitionID, classUUID,
	).Scan(&c.ID, &c.UUID, &c.ClassName, &c.Section, &c.MonthlyFees, &c.StudentsCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: class %s", storage.ErrNotFound, classUUID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get class: %w", err)
	}
	return c, nil
}

// CreateClass inserts a class and assigns its ID and UUID.
func (s *SQLiteStore) CreateClass(ctx context.Context, tuitionID string, c *models.Class) error {
	if c.UUID == "" {
		c.UUID = newUUID()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO classes (uuid, tuition_id, class_name, section, monthly_fees, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.UUID, tuitionID, c.ClassName, c.Section, c.MonthlyFees.Float(), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert class: %w", err)
	}
	id, _ := res.LastInsertId()
	c.ID = models.ID(fmt.Sprint(id))
	return nil
}

// UpdateClass saves name, section and fee of an existing class.
func (s *SQLiteStore) UpdateClass(ctx context.Context, tuitionID string, c *models.Class) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE classes SET class_name = ?, section = ?, monthly_fees = ? WHERE tuition_id = ? AND uuid = ?`,
		c.ClassName, c.Section, c.MonthlyFees.Float(), tuitionID, c.UUID,
	)
	if err != nil {
		return fmt.Errorf("failed to update class: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: class %s", storage.ErrNotFound, c.UUID)
	}
	return nil
}
