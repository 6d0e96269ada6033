package ledger

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/mmynk/tuitionbook/internal/models"
)

type markerFunc func(ctx context.Context, feeUUID string) error

func (f markerFunc) MarkFeePaid(ctx context.Context, feeUUID string) error { return f(ctx, feeUUID) }

func TestFromFeesAndTotals(t *testing.T) {
	l := FromFees([]models.Fee{
		{UUID: "f-1", YearMonth: "January 2025", IsPaid: true, MonthlyFees: 500},
		{UUID: "f-2", YearMonth: "February 2025", MonthlyFees: 500},
		{UUID: "f-3", YearMonth: "", MonthlyFees: 999},
		{UUID: "f-4", YearMonth: "March 2025", MonthlyFees: 600},
	})

	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}
	if l.UnpaidCount() != 2 {
		t.Errorf("UnpaidCount() = %d, want 2", l.UnpaidCount())
	}
	if l.TotalPaid() != 500 {
		t.Errorf("TotalPaid() = %v, want 500", l.TotalPaid())
	}
	if l.TotalPending() != 1100 {
		t.Errorf("TotalPending() = %v, want 1100", l.TotalPending())
	}
}

func TestAddThenMarkPaid(t *testing.T) {
	ctx := context.Background()
	l := New()

	// Server answers the add-fee request without an amount.
	if err := l.Merge(models.Fee{UUID: "u1", YearMonth: "March 2025"}, 500); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if e, _ := l.Get("March 2025"); e.Paid || e.Amount != 500 {
		t.Fatalf("unexpected entry %+v", e)
	}
	if l.TotalPending() != 500 || l.UnpaidCount() != 1 {
		t.Errorf("pending = %v unpaid = %d", l.TotalPending(), l.UnpaidCount())
	}

	if err := l.Begin("March 2025"); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	var sent string
	err := l.Commit(ctx, markerFunc(func(_ context.Context, id string) error {
		sent = id
		return nil
	}))
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if sent != "u1" {
		t.Errorf("marked %q, want u1", sent)
	}

	e, _ := l.Get("March 2025")
	if !e.Paid || e.Amount != 500 {
		t.Errorf("unexpected entry after commit %+v", e)
	}
	if l.TotalPaid() != 500 || l.TotalPending() != 0 || l.UnpaidCount() != 0 {
		t.Errorf("paid = %v pending = %v unpaid = %d", l.TotalPaid(), l.TotalPending(), l.UnpaidCount())
	}
	if _, ok := l.Pending(); ok {
		t.Error("pending selection should be cleared")
	}
}

func TestMergeRejectsIncompleteRecord(t *testing.T) {
	l := New()
	for _, f := range []models.Fee{{YearMonth: "March 2025"}, {UUID: "u1"}} {
		if err := l.Merge(f, 500); !errors.Is(err, ErrInvalidFeeData) {
			t.Errorf("Merge(%+v) = %v, want ErrInvalidFeeData", f, err)
		}
	}
	if l.Len() != 0 {
		t.Error("rejected records must not be stored")
	}
}

func TestBeginRequiresUUID(t *testing.T) {
	l := FromFees([]models.Fee{{YearMonth: "March 2025", MonthlyFees: 500}})
	if err := l.Begin("March 2025"); !errors.Is(err, ErrInvalidFee) {
		t.Errorf("Begin without uuid = %v, want ErrInvalidFee", err)
	}
	if err := l.Begin("April 2025"); !errors.Is(err, ErrInvalidFee) {
		t.Errorf("Begin on missing month = %v, want ErrInvalidFee", err)
	}
}

func TestCommitFailureKeepsUnpaid(t *testing.T) {
	l := FromFees([]models.Fee{{UUID: "u1", YearMonth: "March 2025", MonthlyFees: 500}})
	l.Begin("March 2025")

	boom := errors.New("boom")
	err := l.Commit(context.Background(), markerFunc(func(context.Context, string) error { return boom }))
	if !errors.Is(err, boom) {
		t.Fatalf("Commit = %v, want boom", err)
	}
	if e, _ := l.Get("March 2025"); e.Paid {
		t.Error("failed commit must not flip paid")
	}
	if _, ok := l.Pending(); ok {
		t.Error("pending selection should be cleared after failure")
	}
	if err := l.Commit(context.Background(), nil); !errors.Is(err, ErrNothingPending) {
		t.Errorf("Commit without Begin = %v", err)
	}
}

func TestCancel(t *testing.T) {
	l := FromFees([]models.Fee{{UUID: "u1", YearMonth: "March 2025"}})
	l.Begin("March 2025")
	l.Cancel()
	if _, ok := l.Pending(); ok {
		t.Error("Cancel should clear the pending month")
	}
}

func TestMonthsChronological(t *testing.T) {
	l := FromFees([]models.Fee{
		{UUID: "a", YearMonth: "March 2025"},
		{UUID: "b", YearMonth: "Someday"},
		{UUID: "c", YearMonth: "December 2024"},
		{UUID: "d", YearMonth: "January 2025"},
	})
	want := []string{"December 2024", "January 2025", "March 2025", "Someday"}
	if got := l.Months(); !reflect.DeepEqual(got, want) {
		t.Errorf("Months() = %v, want %v", got, want)
	}
}

func TestLabelHelpers(t *testing.T) {
	if got := Label(time.March, 2025); got != "March 2025" {
		t.Errorf("Label() = %q", got)
	}
	tests := []struct {
		now   time.Time
		month time.Month
		year  int
	}{
		{time.Date(2025, time.March, 31, 12, 0, 0, 0, time.UTC), time.February, 2025},
		{time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), time.December, 2024},
	}
	for _, tt := range tests {
		m, y := PreviousMonth(tt.now)
		if m != tt.month || y != tt.year {
			t.Errorf("PreviousMonth(%v) = %v %d, want %v %d", tt.now, m, y, tt.month, tt.year)
		}
	}
}

func TestTakeThenMarkPaid(t *testing.T) {
	l := FromFees([]models.Fee{{UUID: "u1", YearMonth: "March 2025", MonthlyFees: 500}})

	if _, _, err := l.Take(); !errors.Is(err, ErrNothingPending) {
		t.Errorf("Take without Begin = %v", err)
	}

	l.Begin("March 2025")
	month, e, err := l.Take()
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if month != "March 2025" || e.UUID != "u1" {
		t.Errorf("Take = %q, %+v", month, e)
	}
	if _, ok := l.Pending(); ok {
		t.Error("Take left the selection pending")
	}
	if got, _ := l.Get(month); got.Paid {
		t.Error("Take flipped paid before MarkPaid")
	}

	l.MarkPaid(month)
	l.MarkPaid("April 2025")
	if got, _ := l.Get(month); !got.Paid || got.Amount != 500 {
		t.Errorf("after MarkPaid = %+v", got)
	}
	if l.Len() != 1 {
		t.Errorf("MarkPaid on a missing month added an entry, Len() = %d", l.Len())
	}
}
