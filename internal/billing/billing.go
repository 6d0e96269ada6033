// Package billing computes fee generation and collection figures on the server.
package billing

import (
	"math"
	"time"

	"github.com/mmynk/tuitionbook/internal/ledger"
	"github.com/mmynk/tuitionbook/internal/models"
)

// MonthsToGenerate returns the month labels a generate-fees run covers:
// the previous month, and the current month unless exceptThisMonth is set.
func MonthsToGenerate(now time.Time, exceptThisMonth bool) []string {
	m, y := ledger.PreviousMonth(now)
	months := []string{ledger.Label(m, y)}
	if !exceptThisMonth {
		months = append(months, ledger.Label(now.Month(), now.Year()))
	}
	return months
}

// MissingFees returns a new unpaid record for every active student that has
// no record for one of months. The amount is the student's monthly fee;
// students without a fee are skipped.
func MissingFees(students []models.Student, existing []models.Fee, months []string) []models.Fee {
	// have[studentUUID][yearMonth]
	have := make(map[string]map[string]bool)
	for _, f := range existing {
		if have[f.StudentID] == nil {
			have[f.StudentID] = make(map[string]bool)
		}
		have[f.StudentID][f.YearMonth] = true
	}

	var out []models.Fee
	for _, st := range students {
		if !st.IsActive() || st.MonthlyFees() <= 0 {
			continue
		}
		for _, month := range months {
			if have[st.UUID][month] {
				continue
			}
			out = append(out, models.Fee{
				StudentID:   st.UUID,
				YearMonth:   month,
				MonthlyFees: models.Amount(st.MonthlyFees()),
			})
		}
	}
	return out
}

// Dashboard computes the headline numbers of a tuition.
func Dashboard(students []models.Student, classCount int, fees []models.Fee, now time.Time) models.Dashboard {
	d := models.Dashboard{TotalClasses: classCount}
	for _, st := range students {
		if st.IsActive() {
			d.TotalActiveStudents++
		} else {
			d.TotalInactiveStudents++
		}
	}

	thisMonth := ledger.Label(now.Month(), now.Year())
	var due, dueThisMonth, paidThisMonth float64
	for _, f := range fees {
		amount := f.MonthlyFees.Float()
		if !f.IsPaid {
			due += amount
		}
		if f.YearMonth != thisMonth {
			continue
		}
		if f.IsPaid {
			paidThisMonth += amount
		} else {
			dueThisMonth += amount
		}
	}
	d.TotalFeesDue = models.Amount(round2(due))
	d.FeesDueThisMonth = models.Amount(round2(dueThisMonth))
	d.FeesPaidThisMonth = models.Amount(round2(paidThisMonth))
	return d
}

// MonthlyCollection totals collected and pending amounts per month, oldest first.
func MonthlyCollection(fees []models.Fee) []models.MonthlyCollection {
	totals := make(map[string]*models.MonthlyCollection)
	var labels []string
	for _, f := range fees {
		c, ok := totals[f.YearMonth]
		if !ok {
			c = &models.MonthlyCollection{YearMonth: f.YearMonth}
			totals[f.YearMonth] = c
			labels = append(labels, f.YearMonth)
		}
		if f.IsPaid {
			c.Collected += f.MonthlyFees
		} else {
			c.Pending += f.MonthlyFees
		}
	}

	ledger.SortLabels(labels)
	out := make([]models.MonthlyCollection, 0, len(labels))
	for _, l := range labels {
		c := totals[l]
		c.Collected = models.Amount(round2(c.Collected.Float()))
		c.Pending = models.Amount(round2(c.Pending.Float()))
		out = append(out, *c)
	}
	return out
}

// ExtendExpiry returns the new subscription end after buying days: counted
// from the current end when it is still in the future, else from now.
func ExtendExpiry(current int64, now time.Time, days int) int64 {
	start := now
	if end := time.Unix(current, 0); end.After(now) {
		start = end
	}
	return start.AddDate(0, 0, days).Unix()
}

// IsExpired reports whether a subscription ending at expiresAt has lapsed.
func IsExpired(expiresAt int64, now time.Time) bool {
	return expiresAt <= now.Unix()
}

// Paise converts a rupee price to the smallest currency unit.
func Paise(rupees float64) int64 {
	return int64(math.Round(rupees * 100))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
