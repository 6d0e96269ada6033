// Package export writes student lists and fee ledgers as spreadsheets, and
// formats fee receipts.
package export

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/divan/num2words"
	"github.com/xuri/excelize/v2"

	"github.com/mmynk/tuitionbook/internal/ledger"
	"github.com/mmynk/tuitionbook/internal/models"
)

const (
	studentsSheet = "Students"
	feesSheet     = "Fees"
)

// Students writes list as an .xlsx workbook with one row per student.
func Students(w io.Writer, list []models.Student) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", studentsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headers := []any{"Name", "Mobile", "Class", "Status", "Monthly Fee", "Unpaid Months"}
	if err := f.SetSheetRow(studentsSheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, s := range list {
		row := []any{s.Name, s.Mobile, s.ClassName(), models.StatusString(s.IsActive()), s.MonthlyFees(), int(s.UnpaidFeesCount)}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(studentsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := styleHeader(f, studentsSheet, len(headers)); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Ledger writes one student's fee months, oldest first, followed by totals.
func Ledger(w io.Writer, student models.Student, l *ledger.Ledger) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", feesSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	f.SetCellValue(feesSheet, "A1", student.Name)
	f.SetCellValue(feesSheet, "B1", student.ClassName())

	headers := []any{"Month", "Amount", "Paid"}
	if err := f.SetSheetRow(feesSheet, "A2", &headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := 3
	for _, month := range l.Months() {
		e, _ := l.Get(month)
		paid := "No"
		if e.Paid {
			paid = "Yes"
		}
		values := []any{month, e.Amount, paid}
		if err := f.SetSheetRow(feesSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
		row++
	}

	row++
	f.SetCellValue(feesSheet, fmt.Sprintf("A%d", row), "Total paid")
	f.SetCellValue(feesSheet, fmt.Sprintf("B%d", row), l.TotalPaid())
	row++
	f.SetCellValue(feesSheet, fmt.Sprintf("A%d", row), "Total pending")
	f.SetCellValue(feesSheet, fmt.Sprintf("B%d", row), l.TotalPending())

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func styleHeader(f *excelize.File, sheet string, cols int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(cols, 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return nil
}

// AmountInWords spells out a rupee amount, e.g. 1250.5 is
// "one thousand two hundred fifty rupees 50 paise".
func AmountInWords(amount float64) string {
	rupees := int(amount)
	paise := int(math.Round((amount - float64(rupees)) * 100))
	return fmt.Sprintf("%s rupees %02d paise", num2words.Convert(rupees), paise)
}

// Receipt formats a plain-text receipt for one paid month.
func Receipt(tuition *models.Tuition, student models.Student, month string, e ledger.Entry, issued time.Time) string {
	var b strings.Builder
	if tuition != nil && tuition.Name != "" {
		fmt.Fprintf(&b, "%s\n", tuition.Name)
	}
	fmt.Fprintf(&b, "Fee receipt %s\n", e.UUID)
	fmt.Fprintf(&b, "Date: %s\n", issued.Format("02 Jan 2006"))
	fmt.Fprintf(&b, "Student: %s", student.Name)
	if c := student.ClassName(); c != "" {
		fmt.Fprintf(&b, " (%s)", c)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Month: %s\n", month)
	fmt.Fprintf(&b, "Amount: %.2f (%s)\n", e.Amount, AmountInWords(e.Amount))
	if e.Paid {
		b.WriteString("Status: Paid\n")
	} else {
		b.WriteString("Status: Pending\n")
	}
	return b.String()
}
