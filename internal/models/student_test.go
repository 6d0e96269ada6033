package models

import (
	"encoding/json"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func TestStudentKey(t *testing.T) {
	tests := []struct {
		name    string
		student Student
		want    string
	}{
		{"student_info uuid wins", Student{ID: "7", UUID: "u-1", Info: &StudentInfo{UUID: "si-1"}}, "si-1"},
		{"uuid when info has none", Student{ID: "7", UUID: "u-1", Info: &StudentInfo{}}, "u-1"},
		{"id as last resort", Student{ID: "7"}, "7"},
		{"nothing", Student{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.student.Key(); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStudentIsActive(t *testing.T) {
	tests := []struct {
		name    string
		student Student
		want    bool
	}{
		{"bool true", Student{Active: boolPtr(true), Status: "inactive"}, true},
		{"bool false", Student{Active: boolPtr(false), Status: "active"}, false},
		{"status inactive", Student{Status: "Inactive"}, false},
		{"status active", Student{Status: "ACTIVE"}, true},
		{"unknown status", Student{Status: "suspended"}, true},
		{"neither", Student{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.student.IsActive(); got != tt.want {
				t.Errorf("IsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStudentDecode(t *testing.T) {
	raw := `{
		"id": 42,
		"name": "Ravi",
		"mobile": "9876543210",
		"unpaid_fees_count": 2,
		"student_info": {
			"uuid": "si-42",
			"monthly_fees": "750.00",
			"class": {"uuid": "c-1", "class_name": "Grade 5"},
			"fees": [{"uuid": "f-1", "year_month": "March 2025", "is_paid": false, "monthly_fees": 750}]
		}
	}`
	var s Student
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if s.Key() != "si-42" {
		t.Errorf("Key() = %q", s.Key())
	}
	if s.ID != "42" {
		t.Errorf("ID = %q", s.ID)
	}
	if s.MonthlyFees() != 750 {
		t.Errorf("MonthlyFees() = %v", s.MonthlyFees())
	}
	if s.ClassName() != "Grade 5" {
		t.Errorf("ClassName() = %q", s.ClassName())
	}
	if len(s.Info.Fees) != 1 || s.Info.Fees[0].YearMonth != "March 2025" {
		t.Errorf("fees = %+v", s.Info.Fees)
	}
}

func TestStudentClone(t *testing.T) {
	orig := Student{
		Active: boolPtr(true),
		Info:   &StudentInfo{Class: &ClassRef{ClassName: "A"}, Fees: []Fee{{UUID: "f"}}},
	}
	c := orig.Clone()
	*c.Active = false
	c.Info.Class.ClassName = "B"
	c.Info.Fees[0].UUID = "g"

	if !*orig.Active || orig.Info.Class.ClassName != "A" || orig.Info.Fees[0].UUID != "f" {
		t.Errorf("Clone shares state with original: %+v", orig)
	}
}

func TestStudentDecodeLoose(t *testing.T) {
	body := `[
		{"id": 1, "name": "Ravi", "unpaid_fees_count": "2", "active": 1, "status": "inactive",
		 "student_info": {"fees": [{"uuid": "f1", "year_month": "March 2025", "is_paid": 1, "monthly_fees": "500"}]}},
		{"id": 2, "name": "Meera", "unpaid_fees_count": null, "active": "yes"},
		{"id": 3, "name": "Kiran", "unpaid_fees_count": 4, "active": false, "status": "active"}
	]`

	var list []Student
	if err := json.Unmarshal([]byte(body), &list); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d students, want 3", len(list))
	}

	tests := []struct {
		name   string
		got    Student
		unpaid Count
		active bool
	}{
		{"numeric active falls back to status", list[0], 2, false},
		{"string active and null count", list[1], 0, true},
		{"boolean active wins", list[2], 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.UnpaidFeesCount != tt.unpaid {
				t.Errorf("UnpaidFeesCount = %d, want %d", tt.got.UnpaidFeesCount, tt.unpaid)
			}
			if got := tt.got.IsActive(); got != tt.active {
				t.Errorf("IsActive() = %v, want %v", got, tt.active)
			}
		})
	}

	if list[0].Active != nil {
		t.Errorf("Active = %v, want nil for a numeric value", *list[0].Active)
	}
	fees := list[0].Info.Fees
	if len(fees) != 1 || !fees[0].IsPaid || fees[0].MonthlyFees != 500 {
		t.Errorf("fees = %+v", fees)
	}
}
