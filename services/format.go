package services

import (
	"fmt"
	"math"
	"strings"
)

// Grouping styles for amounts.
const (
	GroupingIndian        = "indian"
	GroupingInternational = "international"
)

// MoneyFormat renders amounts with a currency symbol and digit grouping.
type MoneyFormat struct {
	Symbol   string
	Grouping string
}

// DefaultMoneyFormat is rupees with Indian grouping.
var DefaultMoneyFormat = MoneyFormat{Symbol: "₹", Grouping: GroupingIndian}

// Format renders amount with exactly 2 decimal places.
func (m MoneyFormat) Format(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	raw := fmt.Sprintf("%.2f", RoundCents(amount))
	parts := strings.SplitN(raw, ".", 2)

	var grouped string
	if m.Grouping == GroupingInternational {
		grouped = applyThousandsGrouping(parts[0])
	} else {
		grouped = applyIndianGrouping(parts[0])
	}

	result := m.Symbol + grouped + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

// applyIndianGrouping inserts commas into an integer string using the
// Indian numbering system: the rightmost 3 digits form the first group,
// then every 2 digits form subsequent groups.
func applyIndianGrouping(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	result := s[n-3:]
	remaining := s[:n-3]
	for len(remaining) > 2 {
		result = remaining[len(remaining)-2:] + "," + result
		remaining = remaining[:len(remaining)-2]
	}
	if len(remaining) > 0 {
		result = remaining + "," + result
	}
	return result
}

// applyThousandsGrouping groups every 3 digits.
func applyThousandsGrouping(s string) string {
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatQty returns a string representation of the quantity value.
// Whole numbers are formatted without decimals; fractional values get 2 decimal places.
func FormatQty(qty float64) string {
	if qty == math.Trunc(qty) {
		return fmt.Sprintf("%.0f", qty)
	}
	return fmt.Sprintf("%.2f", qty)
}
