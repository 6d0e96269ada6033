package billing

import (
	"reflect"
	"testing"
	"time"

	"github.com/mmynk/tuitionbook/internal/models"
)

func student(uuid, status string, fee float64) models.Student {
	return models.Student{UUID: uuid, Status: status, Info: &models.StudentInfo{UUID: uuid, MonthlyFees: models.Amount(fee)}}
}

func TestMonthsToGenerate(t *testing.T) {
	now := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		except bool
		want   []string
	}{
		{"with this month", false, []string{"December 2024", "January 2025"}},
		{"except this month", true, []string{"December 2024"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthsToGenerate(now, tt.except); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MonthsToGenerate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMissingFees(t *testing.T) {
	students := []models.Student{
		student("a", models.StatusActive, 500),
		student("b", models.StatusInactive, 500),
		student("c", "", 700),
		student("d", models.StatusActive, 0),
	}
	existing := []models.Fee{{StudentID: "a", YearMonth: "March 2025"}}

	got := MissingFees(students, existing, []string{"March 2025", "April 2025"})

	want := []models.Fee{
		{StudentID: "a", YearMonth: "April 2025", MonthlyFees: 500},
		{StudentID: "c", YearMonth: "March 2025", MonthlyFees: 700},
		{StudentID: "c", YearMonth: "April 2025", MonthlyFees: 700},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MissingFees() = %+v, want %+v", got, want)
	}
}

func TestDashboard(t *testing.T) {
	now := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	students := []models.Student{
		student("a", models.StatusActive, 500),
		student("b", models.StatusInactive, 500),
		student("c", "", 500),
	}
	fees := []models.Fee{
		{YearMonth: "February 2025", MonthlyFees: 500},
		{YearMonth: "March 2025", MonthlyFees: 500, IsPaid: true},
		{YearMonth: "March 2025", MonthlyFees: 250.5},
	}

	d := Dashboard(students, 2, fees, now)
	want := models.Dashboard{
		TotalActiveStudents:   2,
		TotalInactiveStudents: 1,
		TotalClasses:          2,
		TotalFeesDue:          750.5,
		FeesDueThisMonth:      250.5,
		FeesPaidThisMonth:     500,
	}
	if d != want {
		t.Errorf("Dashboard() = %+v, want %+v", d, want)
	}
}

func TestMonthlyCollection(t *testing.T) {
	fees := []models.Fee{
		{YearMonth: "March 2025", MonthlyFees: 500, IsPaid: true},
		{YearMonth: "January 2025", MonthlyFees: 300},
		{YearMonth: "March 2025", MonthlyFees: 200},
		{YearMonth: "January 2025", MonthlyFees: 300, IsPaid: true},
	}
	want := []models.MonthlyCollection{
		{YearMonth: "January 2025", Collected: 300, Pending: 300},
		{YearMonth: "March 2025", Collected: 500, Pending: 200},
	}
	if got := MonthlyCollection(fees); !reflect.DeepEqual(got, want) {
		t.Errorf("MonthlyCollection() = %+v, want %+v", got, want)
	}
}

func TestExtendExpiry(t *testing.T) {
	now := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 0, 10).Unix()

	if got := ExtendExpiry(0, now, 30); got != now.AddDate(0, 0, 30).Unix() {
		t.Errorf("lapsed subscription should extend from now, got %d", got)
	}
	if got := ExtendExpiry(future, now, 30); got != time.Unix(future, 0).AddDate(0, 0, 30).Unix() {
		t.Errorf("active subscription should extend from its end, got %d", got)
	}
	if !IsExpired(now.Unix(), now) || IsExpired(future, now) {
		t.Error("IsExpired mismatch")
	}
	if Paise(199.99) != 19999 {
		t.Errorf("Paise(199.99) = %d", Paise(199.99))
	}
}
