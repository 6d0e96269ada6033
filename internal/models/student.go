package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Student status values as sent by the API.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Student represents an enrolled student as returned by /student/index.
// Students are never deleted client side; only their status flips.
type Student struct {
	// ID is the numeric database identifier.
	ID ID `json:"id,omitempty"`

	// UUID is the public identifier used in update URLs.
	UUID string `json:"uuid,omitempty"`

	Name    string `json:"name"`
	Mobile  string `json:"mobile"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`

	// Status is "active" or "inactive". Older API versions omit it.
	Status string `json:"status,omitempty"`

	// Active is the boolean form of Status. When present it wins over Status.
	// Non-boolean values decode as absent.
	Active *bool `json:"active,omitempty"`

	// UnpaidFeesCount is computed by the server.
	UnpaidFeesCount Count `json:"unpaid_fees_count"`

	// Info holds the class reference and fee records.
	Info *StudentInfo `json:"student_info,omitempty"`
}

// UnmarshalJSON decodes a student, keeping "active" only when it is a JSON
// boolean so IsActive falls back to Status otherwise.
func (s *Student) UnmarshalJSON(b []byte) error {
	type plain Student
	aux := struct {
		*plain
		Active json.RawMessage `json:"active"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	s.Active = nil
	switch raw := bytes.TrimSpace(aux.Active); {
	case bytes.Equal(raw, []byte("true")):
		v := true
		s.Active = &v
	case bytes.Equal(raw, []byte("false")):
		v := false
		s.Active = &v
	}
	return nil
}

// StudentInfo is the nested profile block of a student.
type StudentInfo struct {
	UUID            string    `json:"uuid,omitempty"`
	Gender          string    `json:"gender,omitempty"`
	AdmissionYear   string    `json:"admission_year,omitempty"`
	MonthlyFees     Amount    `json:"monthly_fees,omitempty"`
	GuardianName    string    `json:"guardian_name,omitempty"`
	GuardianContact string    `json:"guardian_contact,omitempty"`
	Class           *ClassRef `json:"class,omitempty"`

	// Fees is only populated by the single-student endpoint.
	Fees []Fee `json:"fees,omitempty"`
}

// ClassRef is the class reference embedded in a student.
type ClassRef struct {
	UUID      string `json:"uuid,omitempty"`
	ClassName string `json:"class_name"`
	Section   string `json:"section,omitempty"`
}

// Key returns the identifier used for selection and bulk updates:
// the student_info uuid, else the uuid, else the id.
func (s Student) Key() string {
	if s.Info != nil && s.Info.UUID != "" {
		return s.Info.UUID
	}
	if s.UUID != "" {
		return s.UUID
	}
	return s.ID.String()
}

// IsActive derives the active flag: the Active bool when present, else the
// Status string, defaulting to active when neither is set.
func (s Student) IsActive() bool {
	if s.Active != nil {
		return *s.Active
	}
	switch strings.ToLower(s.Status) {
	case StatusActive:
		return true
	case StatusInactive:
		return false
	}
	return true
}

// ClassName returns the name of the student's class, or "".
func (s Student) ClassName() string {
	if s.Info == nil || s.Info.Class == nil {
		return ""
	}
	return s.Info.Class.ClassName
}

// MonthlyFees returns the student's current monthly fee, or 0.
func (s Student) MonthlyFees() float64 {
	if s.Info == nil {
		return 0
	}
	return s.Info.MonthlyFees.Float()
}

// Clone returns a copy that shares no mutable state with s.
func (s Student) Clone() Student {
	c := s
	if s.Active != nil {
		v := *s.Active
		c.Active = &v
	}
	if s.Info != nil {
		info := *s.Info
		if s.Info.Class != nil {
			class := *s.Info.Class
			info.Class = &class
		}
		if s.Info.Fees != nil {
			info.Fees = append([]Fee(nil), s.Info.Fees...)
		}
		c.Info = &info
	}
	return c
}

// StatusString maps an active flag to the API status value.
func StatusString(active bool) string {
	if active {
		return StatusActive
	}
	return StatusInactive
}
