// Package roster filters the student list and drives bulk class and status
// changes over a selection of students.
package roster

import (
	"net/url"
	"strings"

	"github.com/mmynk/tuitionbook/internal/models"
)

// Fee status filter values.
const (
	FeeDue  = "due"
	FeePaid = "paid"
)

// StatusAll is the query value for "any status". In Filters it is "".
const StatusAll = "all"

// Query parameter names. ParamClassName is the navigation hint some screens
// link with; it means the same as ParamClass.
const (
	ParamName      = "name"
	ParamMobile    = "mobile"
	ParamClass     = "class"
	ParamClassName = "className"
	ParamFeeStatus = "feeStatus"
	ParamStatus    = "status"
)

// Filters narrow the student list. Every non-empty filter must match.
type Filters struct {
	// Name is matched case-insensitively as a substring. It holds the settled
	// value of the debounced search box.
	Name string

	// Mobile is matched as a substring.
	Mobile string

	// Class is matched exactly against the class name.
	Class string

	// FeeStatus is FeeDue, FeePaid or "".
	FeeStatus string

	// Status is models.StatusActive, models.StatusInactive or "" for both.
	Status string
}

// DefaultFilters shows active students only.
func DefaultFilters() Filters {
	return Filters{Status: models.StatusActive}
}

// Match reports whether s passes every filter.
func (f Filters) Match(s models.Student) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.Mobile != "" && !strings.Contains(s.Mobile, f.Mobile) {
		return false
	}
	if f.Class != "" && s.ClassName() != f.Class {
		return false
	}
	switch f.FeeStatus {
	case FeeDue:
		if s.UnpaidFeesCount <= 0 {
			return false
		}
	case FeePaid:
		if s.UnpaidFeesCount != 0 {
			return false
		}
	}
	switch f.Status {
	case models.StatusActive:
		return s.IsActive()
	case models.StatusInactive:
		return !s.IsActive()
	}
	return true
}

// Apply returns the students that match, in their original order.
func (f Filters) Apply(list []models.Student) []models.Student {
	out := make([]models.Student, 0, len(list))
	for _, s := range list {
		if f.Match(s) {
			out = append(out, s)
		}
	}
	return out
}

// ClearAll resets every filter except the name, and shows active students.
func (f Filters) ClearAll() Filters {
	return Filters{Name: f.Name, Status: models.StatusActive}
}

// Active reports whether any filter differs from the defaults.
func (f Filters) Active() bool {
	return f != DefaultFilters()
}

// Values encodes the filters as query parameters. Defaults are omitted.
func (f Filters) Values() url.Values {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set(ParamName, f.Name)
	set(ParamMobile, f.Mobile)
	set(ParamClass, f.Class)
	set(ParamFeeStatus, f.FeeStatus)
	switch f.Status {
	case models.StatusActive:
	case "":
		v.Set(ParamStatus, StatusAll)
	default:
		v.Set(ParamStatus, f.Status)
	}
	return v
}

// ParseFilters decodes query parameters written by Values, or the navigation
// hints other screens link with. Missing parameters take the defaults.
func ParseFilters(v url.Values) Filters {
	f := DefaultFilters()
	f.Name = strings.TrimSpace(v.Get(ParamName))
	f.Mobile = strings.TrimSpace(v.Get(ParamMobile))
	f.Class = v.Get(ParamClass)
	if f.Class == "" {
		f.Class = v.Get(ParamClassName)
	}
	switch fs := strings.ToLower(v.Get(ParamFeeStatus)); fs {
	case FeeDue, FeePaid:
		f.FeeStatus = fs
	}
	if v.Has(ParamStatus) {
		switch st := strings.ToLower(v.Get(ParamStatus)); st {
		case models.StatusActive, models.StatusInactive:
			f.Status = st
		case StatusAll, "":
			f.Status = ""
		}
	}
	return f
}
