package services

import "testing"

func TestMoneyFormat_Indian(t *testing.T) {
	tests := []struct {
		name   string
		input  float64
		expect string
	}{
		{"zero", 0, "₹0.00"},
		{"fill value", 450.5, "₹450.50"},
		{"thousands", 4400, "₹4,400.00"},
		{"lakhs", 123456.78, "₹1,23,456.78"},
		{"crores", 12345678.90, "₹1,23,45,678.90"},
		{"rounds half away from zero", 1000.005, "₹1,000.01"},
		{"negative override delta", -250000.50, "-₹2,50,000.50"},
		{"exact crore boundary", 10000000, "₹1,00,00,000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultMoneyFormat.Format(tt.input)
			if got != tt.expect {
				t.Errorf("Format(%v) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestApplyIndianGrouping(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"single digit", "5", "5"},
		{"two digits", "42", "42"},
		{"three digits", "999", "999"},
		{"four digits", "1234", "1,234"},
		{"five digits", "12345", "12,345"},
		{"six digits", "123456", "1,23,456"},
		{"seven digits", "1234567", "12,34,567"},
		{"eight digits", "12345678", "1,23,45,678"},
		{"nine digits", "123456789", "12,34,56,789"},
		{"ten digits", "1234567890", "1,23,45,67,890"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyIndianGrouping(tt.input)
			if got != tt.expect {
				t.Errorf("applyIndianGrouping(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestMoneyFormat_International(t *testing.T) {
	m := MoneyFormat{Symbol: "$", Grouping: GroupingInternational}
	tests := []struct {
		input  float64
		expect string
	}{
		{0, "$0.00"},
		{999.5, "$999.50"},
		{1234567.891, "$1,234,567.89"},
		{-1000, "-$1,000.00"},
	}
	for _, tt := range tests {
		if got := m.Format(tt.input); got != tt.expect {
			t.Errorf("Format(%v) = %q, want %q", tt.input, got, tt.expect)
		}
	}
}

func TestFormatQty(t *testing.T) {
	if got := FormatQty(10); got != "10" {
		t.Errorf("FormatQty(10) = %q", got)
	}
	if got := FormatQty(2.5); got != "2.50" {
		t.Errorf("FormatQty(2.5) = %q", got)
	}
}
