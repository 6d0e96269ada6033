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

const userColumns = `
	CAST(u.id AS TEXT), u.uuid, u.tuition_id, u.name, u.username, u.email, u.mobile, u.address,
	u.role, u.upi_id, u.password_hash, u.created_at, u.updated_at,
	CAST(t.id AS TEXT), t.uuid, t.name, t.address, t.mobile, t.email, t.expires_at`

// CreateTuition inserts a tuition and its admin user in one transaction.
func (s *SQLiteStore) CreateTuition(ctx context.Context, tuition *models.Tuition, admin *models.User) error {
	now := time.Now().Unix()
	if tuition.UUID == "" {
		tuition.UUID = newUUID()
	}
	if admin.UUID == "" {
		admin.UUID = newUUID()
	}
	if admin.Role == "" {
		admin.Role = models.RoleAdmin
	}
	admin.TuitionID = tuition.UUID
	admin.CreatedAt = now
	admin.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO tuitions (uuid, name, address, mobile, email, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tuition.UUID, tuition.Name, tuition.Address, tuition.Mobile, tuition.Email, tuition.ExpiresAt, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert tuition: %w", err)
	}
	id, _ := res.LastInsertId()
	tuition.ID = models.ID(fmt.Sprint(id))

	res, err = tx.ExecContext(ctx,
		`INSERT INTO users (uuid, tuition_id, name, username, email, mobile, address, role, upi_id, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		admin.UUID, admin.TuitionID, admin.Name, admin.Username, admin.Email, admin.Mobile, admin.Address,
		admin.Role, admin.UpiID, admin.PasswordHash, admin.CreatedAt, admin.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: username or email", storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	id, _ = res.LastInsertId()
	admin.ID = models.ID(fmt.Sprint(id))
	admin.Tuition = tuition
	admin.ExpiresAt = tuition.ExpiresAt

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetTuition retrieves a tuition by UUID.
func (s *SQLiteStore) GetTuition(ctx context.Context, tuitionID string) (*models.Tuition, error) {
	t := &models.Tuition{}
	err := s.db.QueryRowContext(ctx,
		`SELECT CAST(id AS TEXT), uuid, name, address, mobile, email, expires_at FROM tuitions WHERE uuid = ?`,
		tuitionID,
	).Scan(&t.ID, &t.UUID, &t.Name, &t.Address, &t.Mobile, &t.Email, &t.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: tuition %s", storage.ErrNotFound, tuitionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tuition: %w", err)
	}
	return t, nil
}

// UpdateTuition saves the tuition's profile fields and expiry.
func (s *SQLiteStore) UpdateTuition(ctx context.Context, t *models.Tuition) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tuitions SET name = ?, address = ?, mobile = ?, email = ?, expires_at = ? WHERE uuid = ?`,
		t.Name, t.Address, t.Mobile, t.Email, t.ExpiresAt, t.UUID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tuition: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: tuition %s", storage.ErrNotFound, t.UUID)
	}
	return nil
}

// DeleteTuition removes the tuition; foreign keys cascade to everything it owns.
func (s *SQLiteStore) DeleteTuition(ctx context.Context, tuitionID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tuitions WHERE uuid = ?`, tuitionID)
	if err != nil {
		return fmt.Errorf("failed to delete tuition: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: tuition %s", storage.ErrNotFound, tuitionID)
	}
	return nil
}

// GetUser retrieves a user by UUID, with their tuition.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users u JOIN tuitions t ON t.uuid = u.tuition_id WHERE u.uuid = ?`,
		userID,
	)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", storage.ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByLogin retrieves a user by username or email, case-insensitively.
func (s *SQLiteStore) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users u JOIN tuitions t ON t.uuid = u.tuition_id
		 WHERE u.username = ? OR u.email = ?`,
		login, login,
	)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", storage.ErrNotFound, login)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by login: %w", err)
	}
	return user, nil
}

// UpdateUser saves the user's profile fields and password hash.
func (s *SQLiteStore) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().Unix()
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, mobile = ?, address = ?, upi_id = ?, password_hash = ?, updated_at = ?
		 WHERE uuid = ?`,
		user.Name, user.Email, user.Mobile, user.Address, user.UpiID, user.PasswordHash, user.UpdatedAt, user.UUID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: email %s", storage.ErrConflict, user.Email)
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: user %s", storage.ErrNotFound, user.UUID)
	}
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	t := &models.Tuition{}
	err := row.Scan(
		&u.ID, &u.UUID, &u.TuitionID, &u.Name, &u.Username, &u.Email, &u.Mobile, &u.Address,
		&u.Role, &u.UpiID, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
		&t.ID, &t.UUID, &t.Name, &t.Address, &t.Mobile, &t.Email, &t.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	u.Tuition = t
	u.ExpiresAt = t.ExpiresAt
	return u, nil
}
