// Package ledger keeps one student's fee records keyed by month label and
// derives the paid and pending totals from them.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mmynk/tuitionbook/internal/models"
)

var (
	ErrInvalidFee     = errors.New("invalid fee record")
	ErrInvalidFeeData = errors.New("invalid fee data returned from server")
	ErrNothingPending = errors.New("no fee awaiting confirmation")
)

// labelLayout is the year_month format, e.g. "March 2025".
const labelLayout = "January 2006"

// Entry is the ledger view of one fee record.
type Entry struct {
	ID     string
	UUID   string
	Paid   bool
	Amount float64
}

// Marker sends the mark-paid request for a fee.
type Marker interface {
	MarkFeePaid(ctx context.Context, feeUUID string) error
}

// Ledger maps month labels to entries. It is not safe for concurrent use;
// the owning screen serializes access.
type Ledger struct {
	entries map[string]Entry
	pending string
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{entries: map[string]Entry{}}
}

// FromFees builds a ledger from the fee records of a student fetch.
// Records without a month are skipped.
func FromFees(fees []models.Fee) *Ledger {
	l := New()
	for _, f := range fees {
		if f.YearMonth == "" {
			continue
		}
		l.entries[f.YearMonth] = Entry{
			ID:     f.ID.String(),
			UUID:   f.UUID,
			Paid:   bool(f.IsPaid),
			Amount: f.MonthlyFees.Float(),
		}
	}
	return l
}

// Len returns the number of months in the ledger.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Get returns the entry for month.
func (l *Ledger) Get(month string) (Entry, bool) {
	e, ok := l.entries[month]
	return e, ok
}

// Merge stores a record returned by the add-fee endpoint under its month.
// A record without an amount takes fallbackAmount, the student's current fee.
func (l *Ledger) Merge(f models.Fee, fallbackAmount float64) error {
	if f.UUID == "" || f.YearMonth == "" {
		return ErrInvalidFeeData
	}
	amount := f.MonthlyFees.Float()
	if amount == 0 {
		amount = fallbackAmount
	}
	l.entries[f.YearMonth] = Entry{ID: f.ID.String(), UUID: f.UUID, Paid: bool(f.IsPaid), Amount: amount}
	return nil
}

// Begin selects month for marking paid. The month must have a server record.
func (l *Ledger) Begin(month string) error {
	e, ok := l.entries[month]
	if !ok || e.UUID == "" {
		return ErrInvalidFee
	}
	l.pending = month
	return nil
}

// Pending returns the month awaiting confirmation.
func (l *Ledger) Pending() (string, bool) {
	return l.pending, l.pending != ""
}

// Cancel drops the pending selection.
func (l *Ledger) Cancel() {
	l.pending = ""
}

// Take clears the pending selection and returns the month and its entry
// for sending. The ledger stays unchanged until MarkPaid.
func (l *Ledger) Take() (string, Entry, error) {
	month := l.pending
	l.pending = ""
	if month == "" {
		return "", Entry{}, ErrNothingPending
	}
	e, ok := l.entries[month]
	if !ok || e.UUID == "" {
		return "", Entry{}, ErrInvalidFee
	}
	return month, e, nil
}

// MarkPaid flips the paid flag of month. Only the paid flag changes.
func (l *Ledger) MarkPaid(month string) {
	if e, ok := l.entries[month]; ok {
		e.Paid = true
		l.entries[month] = e
	}
}

// Commit marks the pending month paid through m.
// The selection is cleared whether or not the request succeeds.
func (l *Ledger) Commit(ctx context.Context, m Marker) error {
	month, e, err := l.Take()
	if err != nil {
		return err
	}
	if err := m.MarkFeePaid(ctx, e.UUID); err != nil {
		return fmt.Errorf("failed to mark %s paid: %w", month, err)
	}
	l.MarkPaid(month)
	return nil
}

// UnpaidCount returns the number of unpaid months.
func (l *Ledger) UnpaidCount() int {
	n := 0
	for _, e := range l.entries {
		if !e.Paid {
			n++
		}
	}
	return n
}

// TotalPaid sums the amounts of paid months.
func (l *Ledger) TotalPaid() float64 {
	total := 0.0
	for _, e := range l.entries {
		if e.Paid {
			total += e.Amount
		}
	}
	return total
}

// TotalPending sums the amounts of unpaid months.
func (l *Ledger) TotalPending() float64 {
	total := 0.0
	for _, e := range l.entries {
		if !e.Paid {
			total += e.Amount
		}
	}
	return total
}

// Months returns the month labels oldest first. Labels that do not parse
// sort last, alphabetically.
func (l *Ledger) Months() []string {
	months := make([]string, 0, len(l.entries))
	for m := range l.entries {
		months = append(months, m)
	}
	SortLabels(months)
	return months
}

// SortLabels sorts month labels chronologically in place.
func SortLabels(labels []string) {
	sort.SliceStable(labels, func(i, j int) bool {
		ti, iok := ParseLabel(labels[i])
		tj, jok := ParseLabel(labels[j])
		switch {
		case iok && jok:
			return ti.Before(tj)
		case iok != jok:
			return iok
		default:
			return labels[i] < labels[j]
		}
	})
}

// Label formats a month label, e.g. Label(time.March, 2025) is "March 2025".
func Label(month time.Month, year int) string {
	return fmt.Sprintf("%s %d", month, year)
}

// ParseLabel parses a month label.
func ParseLabel(label string) (time.Time, bool) {
	t, err := time.Parse(labelLayout, label)
	return t, err == nil
}

// PreviousMonth returns the calendar month before now.
func PreviousMonth(now time.Time) (time.Month, int) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prev := first.AddDate(0, -1, 0)
	return prev.Month(), prev.Year()
}
