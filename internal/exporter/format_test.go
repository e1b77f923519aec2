package exporter

import "testing"

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{0, "$0.00"},
		{600, "$600.00"},
		{999.999, "$1,000.00"},
		{1234.5, "$1,234.50"},
		{1234567.891, "$1,234,567.89"},
		{-1234.5, "$-1,234.50"},
		{-0.4, "$-0.40"},
	}

	for _, tt := range tests {
		if got := FormatMoney(tt.value); got != tt.want {
			t.Errorf("FormatMoney(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{0, "0"},
		{42, "42"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-5000, "-5,000"},
	}

	for _, tt := range tests {
		if got := FormatCount(tt.value); got != tt.want {
			t.Errorf("FormatCount(%d) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
