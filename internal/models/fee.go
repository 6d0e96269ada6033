package models

// Fee is one month's fee record for one student.
// A fee only ever moves from unpaid to paid.
type Fee struct {
	ID   ID     `json:"id,omitempty"`
	UUID string `json:"uuid"`

	// StudentID links the record to its student on the server.
	StudentID string `json:"-"`

	// YearMonth is the ledger key, a label such as "March 2025".
	YearMonth string `json:"year_month"`

	IsPaid Flag `json:"is_paid"`

	// MonthlyFees is the amount due for the month.
	MonthlyFees Amount `json:"monthly_fees"`

	// PaidAt is the Unix timestamp of payment, zero while unpaid.
	PaidAt int64 `json:"paid_at,omitempty"`
}
