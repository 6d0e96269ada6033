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

const studentColumns = `
	CAST(s.id AS TEXT), s.uuid, s.name, s.mobile, s.email, s.address, s.status,
	s.gender, s.admission_year, s.monthly_fees, s.guardian_name, s.guardian_contact,
	COALESCE(c.uuid, ''), COALESCE(c.class_name, ''), COALESCE(c.section, ''),
	(SELECT COUNT(*) FROM fees f WHERE f.student_id = s.uuid AND f.is_paid = 0)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (models.Student, error) {
	var st models.Student
	info := &models.StudentInfo{}
	class := &models.ClassRef{}
	err := row.Scan(
		&st.ID, &st.UUID, &st.Name, &st.Mobile, &st.Email, &st.Address, &st.Status,
		&info.Gender, &info.AdmissionYear, &info.MonthlyFees, &info.GuardianName, &info.GuardianContact,
		&class.UUID, &class.ClassName, &class.Section,
		&st.UnpaidFeesCount,
	)
	if err != nil {
		return st, err
	}
	info.UUID = st.UUID
	if class.UUID != "" {
		info.Class = class
	}
	st.Info = info
	return st, nil
}

// ListStudents returns the tuition's students ordered by name.
func (s *SQLiteStore) ListStudents(ctx context.Context, tuitionID string) ([]models.Student, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+studentColumns+`
		 FROM students s LEFT JOIN classes c ON c.uuid = s.class_id
		 WHERE s.tuition_id = ? ORDER BY s.name, s.id`,
		tuitionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	students := []models.Student{}
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate students: %w", err)
	}
	return students, nil
}

// GetStudent retrieves a student by numeric id or UUID, including fee records.
func (s *SQLiteStore) GetStudent(ctx context.Context, tuitionID, key string) (*models.Student, error) {
	st, err := scanStudent(s.db.QueryRowContext(ctx,
		`SELECT `+studentColumns+`
		 FROM students s LEFT JOIN classes c ON c.uuid = s.class_id
		 WHERE s.tuition_id = ? AND (s.uuid = ? OR CAST(s.id AS TEXT) = ?)`,
		tuitionID, key, key,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: student %s", storage.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+feeColumns+` FROM fees WHERE student_id = ? ORDER BY id`,
		st.UUID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get fees: %w", err)
	}
	defer rows.Close()

	st.Info.Fees = []models.Fee{}
	for rows.Next() {
		f, err := scanFee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fee: %w", err)
		}
		st.Info.Fees = append(st.Info.Fees, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fees: %w", err)
	}
	return &st, nil
}

// CreateStudent inserts a student. The class, when set, must belong to the tuition.
func (s *SQLiteStore) CreateStudent(ctx context.Context, tuitionID string, st *models.Student) error {
	if st.UUID == "" {
		st.UUID = newUUID()
	}
	if st.Status == "" {
		st.Status = models.StatusActive
	}
	if st.Info == nil {
		st.Info = &models.StudentInfo{}
	}
	st.Info.UUID = st.UUID

	classID, err := s.classRef(ctx, tuitionID, st.Info.Class)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO students (uuid, tuition_id, class_id, name, mobile, email, address, status,
		     gender, admission_year, monthly_fees, guardian_name, guardian_contact, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.UUID, tuitionID, classID, st.Name, st.Mobile, st.Email, st.Address, st.Status,
		st.Info.Gender, st.Info.AdmissionYear, st.Info.MonthlyFees.Float(), st.Info.GuardianName, st.Info.GuardianContact,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert student: %w", err)
	}
	id, _ := res.LastInsertId()
	st.ID = models.ID(fmt.Sprint(id))
	return nil
}

// UpdateStudent saves the profile fields of the student with st.UUID.
func (s *SQLiteStore) UpdateStudent(ctx context.Context, tuitionID string, st *models.Student) error {
	if st.Info == nil {
		st.Info = &models.StudentInfo{}
	}
	classID, err := s.classRef(ctx, tuitionID, st.Info.Class)
	if err != nil {
		return err
	}
	if st.Status == "" {
		st.Status = models.StatusActive
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE students SET class_id = ?, name = ?, mobile = ?, email = ?, address = ?, status = ?,
		     gender = ?, admission_year = ?, monthly_fees = ?, guardian_name = ?, guardian_contact = ?
		 WHERE tuition_id = ? AND uuid = ?`,
		classID, st.Name, st.Mobile, st.Email, st.Address, st.Status,
		st.Info.Gender, st.Info.AdmissionYear, st.Info.MonthlyFees.Float(), st.Info.GuardianName, st.Info.GuardianContact,
		tuitionID, st.UUID,
	)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: student %s", storage.ErrNotFound, st.UUID)
	}
	return nil
}

// ChangeClass moves the students identified by keys to classUUID.
func (s *SQLiteStore) ChangeClass(ctx context.Context, tuitionID string, keys []string, classUUID string, updateFees bool) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	class, err := s.GetClass(ctx, tuitionID, classUUID)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	args := []any{class.UUID, updateFees, class.MonthlyFees.Float(), tuitionID}
	args = append(args, keyArgs(keys)...)
	res, err := tx.ExecContext(ctx,
		`UPDATE students
		 SET class_id = ?, monthly_fees = CASE WHEN ? THEN ? ELSE monthly_fees END
		 WHERE tuition_id = ? AND (uuid IN (`+placeholders(len(keys))+`) OR CAST(id AS TEXT) IN (`+placeholders(len(keys))+`))`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to change class: %w", err)
	}
	n, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return int(n), nil
}

// ChangeStatus sets status on the students identified by keys.
func (s *SQLiteStore) ChangeStatus(ctx context.Context, tuitionID string, keys []string, status string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	args := []any{status, tuitionID}
	args = append(args, keyArgs(keys)...)
	res, err := tx.ExecContext(ctx,
		`UPDATE students SET status = ?
		 WHERE tuition_id = ? AND (uuid IN (`+placeholders(len(keys))+`) OR CAST(id AS TEXT) IN (`+placeholders(len(keys))+`))`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to change status: %w", err)
	}
	n, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return int(n), nil
}

// classRef resolves a class reference to a column value, nil when unset.
func (s *SQLiteStore) classRef(ctx context.Context, tuitionID string, ref *models.ClassRef) (any, error) {
	if ref == nil || ref.UUID == "" {
		return nil, nil
	}
	class, err := s.GetClass(ctx, tuitionID, ref.UUID)
	if err != nil {
		return nil, err
	}
	ref.ClassName = class.ClassName
	ref.Section = class.Section
	return class.UUID, nil
}
