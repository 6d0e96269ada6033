package models

// User roles.
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// User represents the signed-in account. Students get an account too; their
// StudentInfo is set and Role is RoleStudent.
type User struct {
	ID       ID     `json:"id,omitempty"`
	UUID     string `json:"uuid,omitempty"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Mobile   string `json:"mobile,omitempty"`
	Address  string `json:"address,omitempty"`
	Role     string `json:"role,omitempty"`

	// UpiID is where the tuition collects fee payments.
	UpiID string `json:"upi_id,omitempty"`

	// IsExpired is true once the tuition's subscription lapsed. The client
	// routes expired accounts to the plans screen.
	IsExpired bool `json:"is_expired"`

	// ExpiresAt is the Unix timestamp the subscription ends.
	ExpiresAt int64 `json:"expires_at,omitempty"`

	Tuition     *Tuition     `json:"tuition,omitempty"`
	StudentInfo *StudentInfo `json:"student_info,omitempty"`

	// PasswordHash never leaves the server.
	PasswordHash string `json:"-"`

	// TuitionID links the account to its tenant on the server.
	TuitionID string `json:"-"`

	CreatedAt int64 `json:"created_at,omitempty"`
	UpdatedAt int64 `json:"-"`
}

// Tuition is the institute (tenant) that owns classes, students and fees.
type Tuition struct {
	ID      ID     `json:"id,omitempty"`
	UUID    string `json:"uuid"`
	Name    string `json:"tuition_name"`
	Address string `json:"address,omitempty"`
	Mobile  string `json:"mobile,omitempty"`
	Email   string `json:"email,omitempty"`

	// ExpiresAt is the Unix timestamp the subscription ends.
	ExpiresAt int64 `json:"expires_at,omitempty"`
}
