package screens

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mmynk/tuitionbook/internal/forms"
	"github.com/mmynk/tuitionbook/internal/ledger"
	"github.com/mmynk/tuitionbook/internal/models"
)

// ProfileAPI is what the student profile screen needs from the API.
type ProfileAPI interface {
	Student(ctx context.Context, id string) (*models.Student, error)
	UpdateStudent(ctx context.Context, studentUUID string, f forms.Student) (*models.Student, string, error)
	AddFee(ctx context.Context, studentID string, f forms.AddFee) (models.Fee, string, error)
	ledger.Marker
}

// StudentProfile is one student's profile and fee ledger.
type StudentProfile struct {
	api    ProfileAPI
	notify Notifier
	logger *slog.Logger
	id     string
	g      guard

	mu      sync.Mutex
	student *models.Student
	ledger  *ledger.Ledger
	loadErr error
}

// NewStudentProfile creates the profile screen for the student with id.
func NewStudentProfile(a ProfileAPI, n Notifier, id string) *StudentProfile {
	return &StudentProfile{
		api:    a,
		notify: n,
		logger: slog.Default().With("screen", "student_profile", "student_id", id),
		id:     id,
		ledger: ledger.New(),
	}
}

// Load fetches the student and rebuilds the ledger from its fee records.
// Without a student id the screen stays in its empty state; Load can be
// called again to retry.
func (p *StudentProfile) Load(ctx context.Context) error {
	if p.id == "" {
		p.setLoadErr(ErrMissingStudentID)
		return ErrMissingStudentID
	}

	tok := p.g.issue()
	student, err := p.api.Student(ctx, p.id)
	if !p.g.current(tok) {
		return ErrStale
	}
	if err != nil {
		p.setLoadErr(err)
		p.logger.Error("Failed to load student", "error", err)
		return fail(p.notify, err)
	}

	var fees []models.Fee
	if student.Info != nil {
		fees = student.Info.Fees
	}
	p.mu.Lock()
	p.student = student
	p.ledger = ledger.FromFees(fees)
	p.loadErr = nil
	p.mu.Unlock()
	return nil
}

func (p *StudentProfile) setLoadErr(err error) {
	p.mu.Lock()
	p.loadErr = err
	p.mu.Unlock()
}

// Err returns the error of the last load, which the screen renders as its
// empty state.
func (p *StudentProfile) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadErr
}

// Student returns the loaded student, or nil.
func (p *StudentProfile) Student() *models.Student {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.student
}

// Ledger returns the fee ledger. It must not be mutated by callers.
func (p *StudentProfile) Ledger() *ledger.Ledger {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ledger
}

// AddFee creates the fee record for the picked month at the student's
// current monthly fee.
func (p *StudentProfile) AddFee(ctx context.Context, month forms.FeeMonth, paid bool) error {
	if err := month.Check(); err != nil {
		return fail(p.notify, err)
	}
	release, err := p.g.acquire()
	if err != nil {
		return err
	}
	defer release()

	p.mu.Lock()
	amount := 0.0
	if p.student != nil {
		amount = p.student.MonthlyFees()
	}
	p.mu.Unlock()

	fee, msg, err := p.api.AddFee(ctx, p.id, forms.AddFee{YearMonth: month.YearMonth(), IsPaid: paid, Amount: amount})
	if err != nil {
		p.logger.Error("Failed to add fee", "month", month.YearMonth(), "error", err)
		return fail(p.notify, err)
	}

	p.mu.Lock()
	err = p.ledger.Merge(fee, amount)
	p.mu.Unlock()
	if err != nil {
		p.notify.Error(Message(err))
		return err
	}
	if msg != "" {
		p.notify.Success(msg)
	}
	return nil
}

// BeginMarkPaid opens the confirmation for marking month paid.
func (p *StudentProfile) BeginMarkPaid(month string) error {
	p.mu.Lock()
	err := p.ledger.Begin(month)
	p.mu.Unlock()
	if err != nil {
		p.notify.Error(Message(err))
	}
	return err
}

// CancelMarkPaid closes the confirmation.
func (p *StudentProfile) CancelMarkPaid() {
	p.mu.Lock()
	p.ledger.Cancel()
	p.mu.Unlock()
}

// ConfirmMarkPaid marks the month awaiting confirmation paid.
func (p *StudentProfile) ConfirmMarkPaid(ctx context.Context) error {
	release, err := p.g.acquire()
	if err != nil {
		return err
	}
	defer release()

	p.mu.Lock()
	month, entry, err := p.ledger.Take()
	p.mu.Unlock()

	if err == nil {
		if err = p.api.MarkFeePaid(ctx, entry.UUID); err != nil {
			err = fmt.Errorf("failed to mark %s paid: %w", month, err)
		} else {
			p.mu.Lock()
			p.ledger.MarkPaid(month)
			p.mu.Unlock()
		}
	}

	switch {
	case err == nil:
		p.notify.Success(fmt.Sprintf("Fee for %s marked as paid", month))
		return nil
	case errors.Is(err, ledger.ErrInvalidFee), errors.Is(err, ledger.ErrNothingPending):
		p.notify.Error(Message(err))
		return err
	default:
		p.logger.Error("Failed to mark fee paid", "month", month, "error", err)
		return fail(p.notify, err)
	}
}

// Update saves the edited student and reloads the profile.
func (p *StudentProfile) Update(ctx context.Context, f forms.Student) error {
	if err := validate(p.notify, f); err != nil {
		return err
	}
	student := p.Student()
	if student == nil || student.UUID == "" {
		return fail(p.notify, ErrMissingStudentID)
	}

	release, err := p.g.acquire()
	if err != nil {
		return err
	}
	_, msg, err := p.api.UpdateStudent(ctx, student.UUID, f)
	release()
	if err != nil {
		p.logger.Error("Failed to update student", "error", err)
		return fail(p.notify, err)
	}
	if msg != "" {
		p.notify.Success(msg)
	}
	return p.Load(ctx)
}

// Busy reports whether a mutation is in flight.
func (p *StudentProfile) Busy() bool {
	return p.g.Busy()
}
