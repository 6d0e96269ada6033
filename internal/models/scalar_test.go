package models

import (
	"encoding/json"
	"testing"
)

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want ID
	}{
		{`12`, "12"},
		{`"12"`, "12"},
		{`"a-b"`, "a-b"},
		{`null`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var id ID
			if err := json.Unmarshal([]byte(tt.in), &id); err != nil {
				t.Fatalf("Unmarshal(%s) failed: %v", tt.in, err)
			}
			if id != tt.want {
				t.Errorf("got %q, want %q", id, tt.want)
			}
		})
	}

	var id ID
	if err := json.Unmarshal([]byte(`true`), &id); err == nil {
		t.Error("expected error for boolean id")
	}
}

func TestAmountUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{`500`, 500},
		{`500.5`, 500.5},
		{`"500.00"`, 500},
		{`" 250 "`, 250},
		{`""`, 0},
		{`"n/a"`, 0},
		{`null`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var a Amount
			if err := json.Unmarshal([]byte(tt.in), &a); err != nil {
				t.Fatalf("Unmarshal(%s) failed: %v", tt.in, err)
			}
			if a.Float() != tt.want {
				t.Errorf("got %v, want %v", a.Float(), tt.want)
			}
		})
	}
}

func TestCountUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want Count
	}{
		{`2`, 2},
		{`2.0`, 2},
		{`"2"`, 2},
		{`" 3 "`, 3},
		{`""`, 0},
		{`"many"`, 0},
		{`-1`, 0},
		{`null`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var c Count
			if err := json.Unmarshal([]byte(tt.in), &c); err != nil {
				t.Fatalf("Unmarshal(%s) failed: %v", tt.in, err)
			}
			if c != tt.want {
				t.Errorf("got %d, want %d", c, tt.want)
			}
		})
	}
}

func TestFlagUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want Flag
	}{
		{`true`, true},
		{`false`, false},
		{`1`, true},
		{`0`, false},
		{`"1"`, true},
		{`"0"`, false},
		{`"true"`, true},
		{`"false"`, false},
		{`""`, false},
		{`null`, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			f := Flag(!tt.want)
			if err := json.Unmarshal([]byte(tt.in), &f); err != nil {
				t.Fatalf("Unmarshal(%s) failed: %v", tt.in, err)
			}
			if f != tt.want {
				t.Errorf("got %v, want %v", f, tt.want)
			}
		})
	}

	var f Flag
	if err := json.Unmarshal([]byte(`{}`), &f); err == nil {
		t.Error("expected error for object flag")
	}
}
