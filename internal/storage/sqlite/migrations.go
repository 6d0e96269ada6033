package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// schema sets up the database. It runs on every start, so every statement
// must be idempotent. Tuitions come first because everything references them.
const schema = `
CREATE TABLE IF NOT EXISTS tuitions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    address TEXT NOT NULL DEFAULT '',
    mobile TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    expires_at INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid TEXT NOT NULL UNIQUE,
    tuition_id TEXT NOT NULL,
    name TEXT NOT NULL,
    username TEXT NOT NULL UNIQUE COLLATE NOCASE,
    email TEXT NOT NULL UNIQUE COLLATE NOCASE,
    mobile TEXT NOT NULL DEFAULT '',
    address TEXT NOT NULL DEFAULT '',
    role TEXT NOT NULL,
    upi_id TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (tuition_id) REFERENCES tuitions(uuid) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS classes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid TEXT NOT NULL UNIQUE,
    tuition_id TEXT NOT NULL,
    class_name TEXT NOT NULL,
    section TEXT NOT NULL DEFAULT '',
    monthly_fees REAL NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (tuition_id) REFERENCES tuitions(uuid) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS students (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid TEXT NOT NULL UNIQUE,
    tuition_id TEXT NOT NULL,
    class_id TEXT,
    name TEXT NOT NULL,
    mobile TEXT NOT NULL,
    email TEXT NOT NULL DEFAULT '',
    address TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'active',
    gender TEXT NOT NULL DEFAULT '',
    admission_year TEXT NOT NULL DEFAULT '',
    monthly_fees REAL NOT NULL DEFAULT 0,
    guardian_name TEXT NOT NULL DEFAULT '',
    guardian_contact TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    FOREIGN KEY (tuition_id) REFERENCES tuitions(uuid) ON DELETE CASCADE,
    FOREIGN KEY (class_id) REFERENCES classes(uuid) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS fees (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid TEXT NOT NULL UNIQUE,
    tuition_id TEXT NOT NULL,
    student_id TEXT NOT NULL,
    year_month TEXT NOT NULL,
    is_paid INTEGER NOT NULL DEFAULT 0,
    monthly_fees REAL NOT NULL,
    paid_at INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    UNIQUE (student_id, year_month),
    FOREIGN KEY (tuition_id) REFERENCES tuitions(uuid) ON DELETE CASCADE,
    FOREIGN KEY (student_id) REFERENCES students(uuid) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS plans (
    uuid TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    price REAL NOT NULL,
    duration_days INTEGER NOT NULL,
    sort INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS orders (
    id TEXT PRIMARY KEY,
    tuition_id TEXT NOT NULL,
    plan_uuid TEXT NOT NULL,
    amount INTEGER NOT NULL,
    currency TEXT NOT NULL,
    paid INTEGER NOT NULL DEFAULT 0,
    payment_id TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    FOREIGN KEY (tuition_id) REFERENCES tuitions(uuid) ON DELETE CASCADE,
    FOREIGN KEY (plan_uuid) REFERENCES plans(uuid)
);

CREATE INDEX IF NOT EXISTS idx_users_tuition_id ON users(tuition_id);
CREATE INDEX IF NOT EXISTS idx_classes_tuition_id ON classes(tuition_id);
CREATE INDEX IF NOT EXISTS idx_students_tuition_id ON students(tuition_id);
CREATE INDEX IF NOT EXISTS idx_students_class_id ON students(class_id);
CREATE INDEX IF NOT EXISTS idx_fees_tuition_id ON fees(tuition_id);
CREATE INDEX IF NOT EXISTS idx_fees_student_id ON fees(student_id);
`

// defaultPlans are offered on every fresh database.
var defaultPlans = []struct {
	uuid, name, description string
	price                   float64
	days                    int
}{
	{"9d5c6a1e-2f4b-4c3a-8e61-0a1b2c3d4e01", "Monthly", "All features for 30 days", 199, 30},
	{"9d5c6a1e-2f4b-4c3a-8e61-0a1b2c3d4e02", "Quarterly", "All features for 90 days", 549, 90},
	{"9d5c6a1e-2f4b-4c3a-8e61-0a1b2c3d4e03", "Yearly", "All features for 365 days", 1999, 365},
}

// runMigrations executes the schema setup and seeds the default plans.
func runMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return err
	}
	for i, p := range defaultPlans {
		_, err := db.ExecContext(ctx,
			`INSERT OR IGNORE INTO plans (uuid, name, description, price, duration_days, sort)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			p.uuid, p.name, p.description, p.price, p.days, i,
		)
		if err != nil {
			return fmt.Errorf("failed to seed plan %s: %w", p.name, err)
		}
	}
	return nil
}
