package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/tuitionbook/internal/models"
)

var (
	ErrNoSelection   = errors.New("no students selected")
	ErrNotSelecting  = errors.New("not in selection mode")
	ErrNotConfirming = errors.New("nothing to confirm")
)

// State is a step of the bulk change workflow.
type State int

const (
	Browsing State = iota
	Selecting
	Confirming
	Submitting
)

func (s State) String() string {
	switch s {
	case Browsing:
		return "browsing"
	case Selecting:
		return "selecting"
	case Confirming:
		return "confirming"
	case Submitting:
		return "submitting"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ChangeKind tells what a pending change does.
type ChangeKind int

const (
	ChangeClass ChangeKind = iota + 1
	ChangeStatus
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeClass:
		return "class"
	case ChangeStatus:
		return "status"
	}
	return fmt.Sprintf("ChangeKind(%d)", int(k))
}

// Change is the staged bulk change awaiting confirmation.
type Change struct {
	Kind ChangeKind

	// Class and UpdateFees apply to ChangeClass. UpdateFees also sets each
	// student's monthly fee to the class fee.
	Class      models.Class
	UpdateFees bool

	// Active applies to ChangeStatus.
	Active bool
}

// Committer sends bulk changes. *api.Client implements it.
type Committer interface {
	ChangeClass(ctx context.Context, keys []string, classUUID string, updateFees bool) (string, error)
	ChangeStatus(ctx context.Context, keys []string, active bool) (string, error)
}

// Workflow walks a bulk change from selection through confirmation to
// submission. It is not safe for concurrent use.
type Workflow struct {
	state     State
	selection *Selection
	pending   *Change
	logger    *slog.Logger
}

// NewWorkflow returns a workflow in the browsing state.
func NewWorkflow() *Workflow {
	return &Workflow{selection: NewSelection(), logger: slog.Default()}
}

// State returns the current step.
func (w *Workflow) State() State { return w.state }

// Selection returns the current selection.
func (w *Workflow) Selection() *Selection { return w.selection }

// Pending returns the staged change, or nil.
func (w *Workflow) Pending() *Change {
	if w.pending == nil {
		return nil
	}
	c := *w.pending
	return &c
}

// StartSelection enters selection mode with nothing selected. It does
// nothing while a change is being submitted.
func (w *Workflow) StartSelection() {
	if w.state == Submitting {
		return
	}
	w.selection.Clear()
	w.pending = nil
	w.state = Selecting
}

// Toggle flips one student in or out of the selection.
func (w *Workflow) Toggle(key string) error {
	if w.state != Selecting {
		return ErrNotSelecting
	}
	w.selection.Toggle(key)
	return nil
}

// SelectAll selects exactly the visible students.
func (w *Workflow) SelectAll(visible []models.Student) error {
	if w.state != Selecting {
		return ErrNotSelecting
	}
	w.selection.SelectAll(visible)
	return nil
}

// StageClass opens the confirmation for moving the selection to class.
// A class without a UUID is ignored.
func (w *Workflow) StageClass(class models.Class, updateFees bool) error {
	if err := w.canStage(); err != nil {
		return err
	}
	if class.UUID == "" {
		return nil
	}
	w.pending = &Change{Kind: ChangeClass, Class: class, UpdateFees: updateFees}
	w.state = Confirming
	return nil
}

// StageStatus opens the confirmation for activating or deactivating the selection.
func (w *Workflow) StageStatus(active bool) error {
	if err := w.canStage(); err != nil {
		return err
	}
	w.pending = &Change{Kind: ChangeStatus, Active: active}
	w.state = Confirming
	return nil
}

// SetUpdateFees flips the "also update monthly fee" toggle of a staged class change.
func (w *Workflow) SetUpdateFees(v bool) {
	if w.pending != nil && w.pending.Kind == ChangeClass {
		w.pending.UpdateFees = v
	}
}

func (w *Workflow) canStage() error {
	if w.state != Selecting {
		return ErrNotSelecting
	}
	if w.selection.Len() == 0 {
		return ErrNoSelection
	}
	return nil
}

// Cancel closes the confirmation and keeps the selection.
func (w *Workflow) Cancel() {
	if w.state == Confirming {
		w.pending = nil
		w.state = Selecting
	}
}

// Back handles a back action. While selecting it clears the selection,
// leaves selection mode and reports true; otherwise it reports false.
func (w *Workflow) Back() bool {
	switch w.state {
	case Confirming:
		w.Cancel()
		return true
	case Selecting:
		w.selection.Clear()
		w.state = Browsing
		return true
	}
	return false
}

// Submission is a staged change taken for sending.
type Submission struct {
	Change Change
	Keys   []string
}

// Send commits the change for every key in one request.
func (sub Submission) Send(ctx context.Context, c Committer) (string, error) {
	switch sub.Change.Kind {
	case ChangeClass:
		return c.ChangeClass(ctx, sub.Keys, sub.Change.Class.UUID, sub.Change.UpdateFees)
	case ChangeStatus:
		return c.ChangeStatus(ctx, sub.Keys, sub.Change.Active)
	}
	return "", fmt.Errorf("unknown change %v", sub.Change.Kind)
}

// Submit takes the staged change for sending and moves to submitting. The
// caller sends it and reports the outcome to Finish.
func (w *Workflow) Submit() (Submission, error) {
	if w.state != Confirming || w.pending == nil {
		return Submission{}, ErrNotConfirming
	}
	sub := Submission{Change: *w.pending, Keys: w.selection.Keys()}
	w.state = Submitting
	return sub, nil
}

// Finish ends a submission with the outcome of sending it and returns list
// patched on success.
//
// On success the workflow returns to browsing. On failure the error is
// logged, list is returned unchanged, and the workflow returns to selecting.
// The selection is cleared either way and the confirmation never stays open.
func (w *Workflow) Finish(sub Submission, list []models.Student, err error) []models.Student {
	w.pending = nil
	w.selection.Clear()

	if err != nil {
		w.logger.Error("Bulk change failed", "kind", sub.Change.Kind, "students", len(sub.Keys), "error", err)
		w.state = Selecting
		return list
	}

	w.state = Browsing
	switch sub.Change.Kind {
	case ChangeClass:
		list = PatchClass(list, sub.Keys, sub.Change.Class.ClassName)
	case ChangeStatus:
		list = PatchStatus(list, sub.Keys, sub.Change.Active)
	}
	return list
}

// Confirm submits the staged change through c, waits for it, and finishes
// the submission. It returns list patched on success and the server message.
func (w *Workflow) Confirm(ctx context.Context, c Committer, list []models.Student) ([]models.Student, string, error) {
	sub, err := w.Submit()
	if err != nil {
		return list, "", err
	}
	msg, err := sub.Send(ctx, c)
	list = w.Finish(sub, list, err)
	if err != nil {
		return list, "", err
	}
	return list, msg, nil
}
