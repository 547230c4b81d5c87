package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"0", "0.00"},
		{"100", "100.00"},
		{"1000", "1,000.00"},
		{"5450", "5,450.00"},
		{"12345.6", "12,345.60"},
		{"123456", "123,456.00"},
		{"1234567.891", "1,234,567.89"},
		{"-1234.56", "-1,234.56"},
		{"-0.001", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatAmount(decimal.RequireFromString(tt.input))
			if result != tt.expected {
				t.Errorf("FormatAmount(%s) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		symbol   string
		amount   string
		expected string
	}{
		{"₹", "5450", "₹5,450.00"},
		{"$", "-12.5", "-$12.50"},
		{"CHF", "1000", "CHF 1,000.00"},
		{"C$", "99.99", "C$99.99"},
		{"XYZ", "1", "XYZ 1.00"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			got := FormatMoney(tt.symbol, decimal.RequireFromString(tt.amount))
			if got != tt.expected {
				t.Errorf("FormatMoney(%q, %s) = %q, want %q", tt.symbol, tt.amount, got, tt.expected)
			}
		})
	}
}

func TestFormatPct(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{18, "18%"},
		{12.5, "12.5%"},
		{0, "0%"},
	}
	for _, tt := range tests {
		if got := FormatPct(tt.input); got != tt.expected {
			t.Errorf("FormatPct(%v) = %s, want %s", tt.input, got, tt.expected)
		}
	}
}
