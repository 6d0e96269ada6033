// Package screens holds the controllers behind each screen of the app. A
// controller owns its screen's local state, issues API calls, and reports
// transient outcomes to a Notifier.
package screens

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/mmynk/tuitionbook/internal/api"
	"github.com/mmynk/tuitionbook/internal/checkout"
	"github.com/mmynk/tuitionbook/internal/forms"
	"github.com/mmynk/tuitionbook/internal/ledger"
)

var (
	// ErrBusy is returned when a mutation is started while another one on the
	// same screen is still in flight.
	ErrBusy = errors.New("another operation is in progress")

	// ErrMissingStudentID is the fatal empty state of the student profile.
	ErrMissingStudentID = errors.New("student id is missing")

	// ErrStale is returned by a load whose response was superseded by a newer
	// load. Its result has been discarded.
	ErrStale = errors.New("response superseded by a newer request")
)

const genericMessage = "Something went wrong"

// notices maps local failures to the text shown for them.
var notices = []struct {
	err  error
	text string
}{
	{ErrMissingStudentID, "Student ID is missing"},
	{ledger.ErrInvalidFee, "Invalid fee record"},
	{ledger.ErrInvalidFeeData, "Invalid fee data returned from server"},
	{ledger.ErrNothingPending, "No fee selected"},
	{checkout.ErrCancelled, "Payment cancelled"},
}

// Notifier shows transient success and error messages.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// LogNotifier writes notices to a logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

func (n LogNotifier) Success(msg string) { n.logger().Info(msg) }
func (n LogNotifier) Error(msg string)   { n.logger().Error(msg) }

// Message returns the user facing text for err: the first field message of
// a validation failure, the API message, the notice for a known local
// failure, or a generic fallback.
func Message(err error) string {
	var fe forms.FieldErrors
	if errors.As(err, &fe) && len(fe) > 0 {
		return fe.First()
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Msg != "" {
		return apiErr.Msg
	}
	for _, n := range notices {
		if errors.Is(err, n.err) {
			return n.text
		}
	}
	return genericMessage
}

// guard carries a screen's busy flag and its load request tokens.
type guard struct {
	mu    sync.Mutex
	busy  bool
	token uint64
}

// acquire sets the busy flag. The returned func clears it.
func (g *guard) acquire() (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy {
		return nil, ErrBusy
	}
	g.busy = true
	return func() {
		g.mu.Lock()
		g.busy = false
		g.mu.Unlock()
	}, nil
}

// Busy reports whether a mutation is in flight.
func (g *guard) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}

// issue returns a fresh request token, invalidating all earlier ones.
func (g *guard) issue() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token++
	return g.token
}

// current reports whether tok is still the latest token.
func (g *guard) current(tok uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return tok == g.token
}

// fail notifies the user of err and returns it.
func fail(n Notifier, err error) error {
	n.Error(Message(err))
	return err
}

// validate runs form validation and notifies the first failure.
func validate(n Notifier, v any) error {
	if err := forms.Validate(v); err != nil {
		return fail(n, err)
	}
	return nil
}
