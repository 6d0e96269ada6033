package screens

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/tuitionbook/internal/forms"
	"github.com/mmynk/tuitionbook/internal/models"
	"github.com/mmynk/tuitionbook/internal/roster"
)

// StudentsAPI is what the students screen needs from the API.
type StudentsAPI interface {
	Students(ctx context.Context) ([]models.Student, error)
	Classes(ctx context.Context) ([]models.Class, error)
	CreateStudent(ctx context.Context, f forms.Student) (*models.Student, string, error)
	roster.Committer
}

// Students is the student list screen: the fetched list, its filters, and the
// bulk change workflow.
type Students struct {
	api    StudentsAPI
	notify Notifier
	logger *slog.Logger
	g      guard

	mu       sync.Mutex
	students []models.Student
	classes  []models.Class
	filters  roster.Filters
	workflow *roster.Workflow
	search   *roster.Debouncer
	onChange func()
}

// NewStudents creates the students screen with default filters.
func NewStudents(a StudentsAPI, n Notifier) *Students {
	s := &Students{
		api:      a,
		notify:   n,
		logger:   slog.Default().With("screen", "students"),
		filters:  roster.DefaultFilters(),
		workflow: roster.NewWorkflow(),
	}
	s.search = roster.NewDebouncer(roster.NameDelay, s.applyName)
	return s
}

// OnChange registers fn to run after the debounced name filter applies.
func (s *Students) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Refresh fetches students and classes in parallel. A list that fails keeps
// its previous value while the other one is still applied. A refresh
// overtaken by a newer one returns ErrStale and leaves the screen untouched.
func (s *Students) Refresh(ctx context.Context) error {
	tok := s.g.issue()

	var students []models.Student
	var classes []models.Class
	var studentsErr, classesErr error
	var eg errgroup.Group
	eg.Go(func() error {
		students, studentsErr = s.api.Students(ctx)
		return studentsErr
	})
	eg.Go(func() error {
		classes, classesErr = s.api.Classes(ctx)
		return classesErr
	})
	err := eg.Wait()

	if !s.g.current(tok) {
		s.logger.Debug("Dropping stale students response", "token", tok)
		return ErrStale
	}

	s.mu.Lock()
	if studentsErr == nil {
		s.students = students
	}
	if classesErr == nil {
		s.classes = classes
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Refresh failed", "students_error", studentsErr, "classes_error", classesErr)
		return fail(s.notify, fmt.Errorf("failed to refresh students: %w", err))
	}
	s.logger.Info("Refreshed students", "students", len(students), "classes", len(classes))
	return nil
}

// Add enrolls a student and refreshes the list.
func (s *Students) Add(ctx context.Context, f forms.Student) error {
	if err := validate(s.notify, f); err != nil {
		return err
	}
	release, err := s.g.acquire()
	if err != nil {
		return err
	}
	_, msg, err := s.api.CreateStudent(ctx, f)
	release()
	if err != nil {
		s.logger.Error("Failed to add student", "error", err)
		return fail(s.notify, err)
	}
	if msg != "" {
		s.notify.Success(msg)
	}
	return s.Refresh(ctx)
}

// All returns the fetched list, unfiltered.
func (s *Students) All() []models.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Student(nil), s.students...)
}

// Classes returns the fetched classes, for the class filter and bulk picker.
func (s *Students) Classes() []models.Class {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Class(nil), s.classes...)
}

// Visible returns the students passing every active filter.
func (s *Students) Visible() []models.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.Apply(s.students)
}

// Filters returns the current filters.
func (s *Students) Filters() roster.Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// SetFilters replaces the filters immediately. A pending debounced name is
// dropped.
func (s *Students) SetFilters(f roster.Filters) {
	s.search.Cancel()
	s.mu.Lock()
	s.filters = f
	s.mu.Unlock()
}

// SearchName updates the name filter once typing pauses.
func (s *Students) SearchName(name string) {
	s.search.Push(name)
}

func (s *Students) applyName(name string) {
	s.mu.Lock()
	s.filters.Name = name
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// ClearFilters resets every filter to its default.
func (s *Students) ClearFilters() {
	s.SetFilters(s.Filters().ClearAll())
}

// State returns the bulk workflow state.
func (s *Students) State() roster.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workflow.State()
}

// Selected returns the selected student keys in selection order.
func (s *Students) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workflow.Selection().Keys()
}

// Pending returns the staged change, or nil.
func (s *Students) Pending() *roster.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workflow.Pending()
}

// StartSelection enters selection mode.
func (s *Students) StartSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflow.StartSelection()
}

// Toggle flips one student in the selection.
func (s *Students) Toggle(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workflow.Toggle(key)
}

// SelectAll selects exactly the visible students.
func (s *Students) SelectAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workflow.SelectAll(s.filters.Apply(s.students))
}

// StageClass stages moving the selection to the class with classUUID.
func (s *Students) StageClass(classUUID string, updateFees bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.classes {
		if c.UUID == classUUID {
			return s.workflow.StageClass(c, updateFees)
		}
	}
	return fmt.Errorf("unknown class %q", classUUID)
}

// StageStatus stages setting the selection active or inactive.
func (s *Students) StageStatus(active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workflow.StageStatus(active)
}

// SetUpdateFees toggles the update-fees option of a staged class change.
func (s *Students) SetUpdateFees(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflow.SetUpdateFees(v)
}

// Cancel abandons selection and any staged change.
func (s *Students) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflow.Cancel()
}

// Back steps back one workflow level. It reports false when there was
// nothing to step back from.
func (s *Students) Back() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workflow.Back()
}

// Confirm submits the staged change. On success the list is patched locally
// and the server message is shown. Failures are logged by the workflow and
// not shown; the selection is cleared either way. The screen stays readable
// while the request is in flight.
func (s *Students) Confirm(ctx context.Context) error {
	release, err := s.g.acquire()
	if err != nil {
		return err
	}
	defer release()

	s.mu.Lock()
	sub, err := s.workflow.Submit()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	msg, err := sub.Send(ctx, s.api)

	s.mu.Lock()
	s.students = s.workflow.Finish(sub, s.students, err)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if msg != "" {
		s.notify.Success(msg)
	}
	return nil
}

// Busy reports whether a bulk change is being submitted.
func (s *Students) Busy() bool {
	return s.g.Busy()
}
