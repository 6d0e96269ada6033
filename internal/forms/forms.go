package forms

import (
	"fmt"
	"strings"
	"time"
)

// Login is the body of POST /login. Username also accepts an email.
type Login struct {
	Username string `json:"username" validate:"required,min=4"`
	Password string `json:"password" validate:"required,min=6"`
}

// Signup is the body of POST /register.
type Signup struct {
	TuitionName     string `json:"tuition_name" validate:"required,notblank"`
	Name            string `json:"name" validate:"required,notblank"`
	Username        string `json:"username" validate:"required,min=4,alphanum"`
	Email           string `json:"email" validate:"required,email"`
	Mobile          string `json:"mobile" validate:"required,mobile10"`
	Address         string `json:"address"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// ForgotPassword is the body of POST /password/forgot.
type ForgotPassword struct {
	Email string `json:"email" validate:"required,email"`
}

// UpdatePassword is the body of POST /password/update.
type UpdatePassword struct {
	Password        string `json:"password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,nefield=Password"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// Profile is the body of PUT /profile/update. Empty fields are left unchanged.
type Profile struct {
	TuitionName string `json:"tuition_name,omitempty"`
	Name        string `json:"name,omitempty"`
	Mobile      string `json:"mobile,omitempty" validate:"omitempty,mobile10"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Address     string `json:"address,omitempty"`
	UpiID       string `json:"upi_id,omitempty" validate:"omitempty,upi"`
}

// DeleteAccount is the body of POST /account/delete.
type DeleteAccount struct {
	Password string `json:"password" validate:"required"`
}

// Class is the body of POST /class/store and PUT /class/edit/:uuid.
type Class struct {
	ClassName   string  `json:"class_name" validate:"required,notblank"`
	Section     string  `json:"section,omitempty"`
	MonthlyFees float64 `json:"monthly_fees,omitempty" validate:"gte=0"`
}

// Student is the body of POST /student/store and PUT /student/update/:uuid.
type Student struct {
	Name            string  `json:"name" validate:"required,notblank"`
	Mobile          string  `json:"mobile" validate:"required,mobile10"`
	Email           string  `json:"email,omitempty" validate:"omitempty,email"`
	Address         string  `json:"address,omitempty"`
	Gender          string  `json:"gender" validate:"required,oneof=male female other"`
	Class           string  `json:"class,omitempty"`
	AdmissionYear   string  `json:"admission_year,omitempty" validate:"omitempty,year4"`
	MonthlyFees     float64 `json:"monthly_fees" validate:"required,gt=0"`
	GuardianName    string  `json:"guardian_name,omitempty"`
	GuardianContact string  `json:"guardian_contact,omitempty" validate:"omitempty,mobile10"`
	Status          string  `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

// BulkClass is the body of PUT /student/change/class.
type BulkClass struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1,dive,required"`
	Class      string   `json:"class" validate:"required"`
}

// BulkStatus is the body of PUT /student/change/status.
type BulkStatus struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1,dive,required"`
	Status     string   `json:"status" validate:"required,oneof=active inactive"`
}

// FeeMonth is the month picker of the add-fee dialog.
type FeeMonth struct {
	Month string `json:"month" validate:"required"`
	Year  string `json:"year" validate:"required,year4"`
}

// YearMonth returns the ledger label, such as "March 2025".
func (m FeeMonth) YearMonth() string {
	return strings.TrimSpace(m.Month) + " " + strings.TrimSpace(m.Year)
}

// Check validates the picker and that Month names a calendar month.
func (m FeeMonth) Check() error {
	if err := Validate(m); err != nil {
		return err
	}
	if _, err := time.Parse("January", strings.TrimSpace(m.Month)); err != nil {
		return FieldErrors{{Field: "month", Message: fmt.Sprintf("%q is not a month", m.Month)}}
	}
	return nil
}

// AddFee is the body of POST /add-fees/:studentId.
type AddFee struct {
	YearMonth string  `json:"year_month" validate:"required"`
	IsPaid    bool    `json:"is_paid"`
	Amount    float64 `json:"amount" validate:"gte=0"`
}

// FeeUpdate is the body of PUT /fee/update/:uuid.
type FeeUpdate struct {
	IsPaid bool `json:"is_paid"`
}

// PaymentOrder is the body of POST /payment/order.
type PaymentOrder struct {
	PlanUUID string `json:"plan_uuid" validate:"required"`
}

// PaymentVerify is the body of POST /payment/verify.
type PaymentVerify struct {
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
	PlanUUID  string `json:"plan_uuid" validate:"required"`
}
