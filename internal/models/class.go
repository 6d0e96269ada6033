package models

// Class represents a class (or department, for colleges) of a tuition.
type Class struct {
	ID        ID     `json:"id,omitempty"`
	UUID      string `json:"uuid"`
	ClassName string `json:"class_name"`
	Section   string `json:"section,omitempty"`

	// MonthlyFees is the default monthly fee for students of this class.
	MonthlyFees Amount `json:"monthly_fees"`

	// StudentsCount is computed by the server.
	StudentsCount int `json:"students_count"`
}
