package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is an identifier that the API may encode as a JSON number or string.
type ID string

// UnmarshalJSON accepts 12, "12" and null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", b, err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the identifier as text.
func (id ID) String() string {
	return string(id)
}

// Amount is a money value that the API may encode as a JSON number or a
// numeric string ("500.00").
type Amount float64

// UnmarshalJSON accepts 500, "500.00", "" and null. Unparsable strings decode
// to zero, the way the client has always treated them.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*a = 0
			return nil
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("invalid amount %s: %w", b, err)
	}
	*a = Amount(f)
	return nil
}

// Float returns the amount as a float64.
func (a Amount) Float() float64 {
	return float64(a)
}

// Count is a non-negative tally that the API may encode as a JSON number or
// a numeric string.
type Count int

// UnmarshalJSON accepts 2, 2.0, "2" and null. Anything unparsable counts as
// zero.
func (c *Count) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		*c = 0
		return nil
	}
	*c = Count(f)
	return nil
}

// Flag is a boolean that the API may encode as true/false, 0/1 or "0"/"1".
type Flag bool

// UnmarshalJSON accepts booleans, numbers and strings. Zero, "", "0",
// "false" and null are false; any other number or string is true.
func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("true")):
		*f = true
	case bytes.Equal(b, []byte("false")), bytes.Equal(b, []byte("null")), len(b) == 0:
		*f = false
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "", "0", "false":
			*f = false
		default:
			*f = true
		}
	default:
		n, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return fmt.Errorf("invalid flag %s: %w", b, err)
		}
		*f = n != 0
	}
	return nil
}
