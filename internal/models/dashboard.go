package models

// Dashboard holds the headline numbers of a tuition.
type Dashboard struct {
	TotalActiveStudents   int    `json:"total_active_students"`
	TotalInactiveStudents int    `json:"total_inactive_students"`
	TotalClasses          int    `json:"total_classes"`
	TotalFeesDue          Amount `json:"total_fees_due"`
	FeesDueThisMonth      Amount `json:"fees_due_this_month"`
	FeesPaidThisMonth     Amount `json:"fees_paid_this_month"`
}

// MonthlyCollection is the collected and pending total of one month.
type MonthlyCollection struct {
	YearMonth string `json:"year_month"`
	Collected Amount `json:"collected"`
	Pending   Amount `json:"pending"`
}
