package commands

import (
	"fmt"
	"strconv"
	"strings"
)

// formatAmount renders a cash amount with thousands separators.
func formatAmount(v float64) string {
	return formatNumber(int64(v + 0.5))
}

// formatNumber inserts thousands separators into an integer.
func formatNumber(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	s := strconv.FormatInt(n, 10)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	return fmt.Sprintf("%s%s", sign, strings.Join(parts, ","))
}
