package exporter

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatMoney renders a KPI amount exactly as the dashboard displays it:
// dollar sign, thousands separators, two decimal places. The sign sits
// inside the dollar sign ("$-1,234.50").
func FormatMoney(v float64) string {
	return "$" + groupDigits(fmt.Sprintf("%.2f", v))
}

// FormatCount renders an order count with thousands separators.
func FormatCount(n int) string {
	return groupDigits(strconv.Itoa(n))
}

func groupDigits(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	out := sign + b.String()
	if hasFrac {
		out += "." + frac
	}
	return out
}
