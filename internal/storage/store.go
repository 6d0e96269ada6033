// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/tuitionbook/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist in the caller's tuition.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique key is already taken.
	ErrConflict = errors.New("already exists")
)

// Store defines the persistence operations of the API server.
// Every tuition-owned record is read and written through the owning tuition's
// UUID, which keeps tenants isolated.
type Store interface {
	// CreateTuition inserts a tuition and its admin user in one transaction.
	// IDs and UUIDs are assigned by the store.
	CreateTuition(ctx context.Context, tuition *models.Tuition, admin *models.User) error
	GetTuition(ctx context.Context, tuitionID string) (*models.Tuition, error)
	UpdateTuition(ctx context.Context, tuition *models.Tuition) error

	// DeleteTuition removes the tuition with all of its users, classes,
	// students, fees and orders.
	DeleteTuition(ctx context.Context, tuitionID string) error

	GetUser(ctx context.Context, userID string) (*models.User, error)

	// GetUserByLogin finds a user by username or email.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error

	ListClasses(ctx context.Context, tuitionID string) ([]models.Class, error)
	GetClass(ctx context.Context, tuitionID, classUUID string) (*models.Class, error)
	CreateClass(ctx context.Context, tuitionID string, class *models.Class) error
	UpdateClass(ctx context.Context, tuitionID string, class *models.Class) error

	// ListStudents returns every student with class and unpaid fee count,
	// without fee records.
	ListStudents(ctx context.Context, tuitionID string) ([]models.Student, error)

	// GetStudent finds a student by numeric id or uuid, with fee records.
	GetStudent(ctx context.Context, tuitionID, key string) (*models.Student, error)
	CreateStudent(ctx context.Context, tuitionID string, student *models.Student) error
	UpdateStudent(ctx context.Context, tuitionID string, student *models.Student) error

	// ChangeClass moves the students to the class in one transaction. When
	// updateFees is set their monthly fee becomes the class fee.
	ChangeClass(ctx context.Context, tuitionID string, keys []string, classUUID string, updateFees bool) (int, error)

	// ChangeStatus sets the status of the students in one transaction.
	ChangeStatus(ctx context.Context, tuitionID string, keys []string, status string) (int, error)

	// ListFees returns every fee record of the tuition.
	ListFees(ctx context.Context, tuitionID string) ([]models.Fee, error)

	// CreateFees inserts fee records, skipping months a student already has.
	// It returns the records actually inserted.
	CreateFees(ctx context.Context, tuitionID string, fees []models.Fee) ([]models.Fee, error)

	// MarkFeePaid flips a fee to paid and returns it. Paying a paid fee is a no-op.
	MarkFeePaid(ctx context.Context, tuitionID, feeUUID string, paidAt int64) (*models.Fee, error)

	ListPlans(ctx context.Context) ([]models.Plan, error)
	GetPlan(ctx context.Context, planUUID string) (*models.Plan, error)

	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)

	// CompleteOrder records the payment and extends the tuition subscription
	// to expiresAt in one transaction.
	CompleteOrder(ctx context.Context, orderID, paymentID string, expiresAt int64) error

	// Close releases any resources held by the store.
	Close() error
}
