package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mmynk/tuitionbook/internal/ledger"
	"github.com/mmynk/tuitionbook/internal/models"
)

func TestStudents(t *testing.T) {
	list := []models.Student{
		{Name: "Ravi", Mobile: "9876543210", Status: "active", UnpaidFeesCount: 2,
			Info: &models.StudentInfo{MonthlyFees: 500, Class: &models.ClassRef{ClassName: "Grade 5"}}},
		{Name: "Meena", Mobile: "9123456780", Status: "inactive"},
	}

	var buf bytes.Buffer
	if err := Students(&buf, list); err != nil {
		t.Fatalf("Students failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(studentsSheet)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Name" || rows[1][0] != "Ravi" || rows[1][2] != "Grade 5" || rows[1][5] != "2" {
		t.Errorf("unexpected rows %v", rows)
	}
	if rows[2][3] != "inactive" {
		t.Errorf("status = %q", rows[2][3])
	}
}

func TestLedger(t *testing.T) {
	l := ledger.FromFees([]models.Fee{
		{UUID: "b", YearMonth: "March 2025", MonthlyFees: 500},
		{UUID: "a", YearMonth: "February 2025", MonthlyFees: 500, IsPaid: true},
	})

	var buf bytes.Buffer
	if err := Ledger(&buf, models.Student{Name: "Ravi"}, l); err != nil {
		t.Fatalf("Ledger failed: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	rows, _ := f.GetRows(feesSheet)
	if rows[2][0] != "February 2025" || rows[2][2] != "Yes" || rows[3][0] != "March 2025" || rows[3][2] != "No" {
		t.Errorf("unexpected rows %v", rows)
	}
}

func TestAmountInWords(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{500, "five hundred rupees 00 paise"},
		{1250.5, "one thousand two hundred fifty rupees 50 paise"},
	}
	for _, tt := range tests {
		if got := AmountInWords(tt.amount); got != tt.want {
			t.Errorf("AmountInWords(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestReceipt(t *testing.T) {
	r := Receipt(&models.Tuition{Name: "Bright Minds"},
		models.Student{Name: "Ravi", Info: &models.StudentInfo{Class: &models.ClassRef{ClassName: "Grade 5"}}},
		"March 2025", ledger.Entry{UUID: "u1", Paid: true, Amount: 500},
		time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC))

	for _, want := range []string{"Bright Minds", "Fee receipt u1", "10 Mar 2025", "Ravi (Grade 5)", "March 2025", "500.00 (five hundred rupees 00 paise)", "Status: Paid"} {
		if !strings.Contains(r, want) {
			t.Errorf("receipt missing %q:\n%s", want, r)
		}
	}
}
