package util

import (
	"fmt"
	"strconv"
	"strings"
)

// MonthKey formats a year and calendar month as the canonical "YYYY-MM" key
// used throughout report payloads and month maps.
func MonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// MonthKeysForYear returns the twelve month keys of a calendar year in order.
func MonthKeysForYear(year int) []string {
	keys := make([]string, 12)
	for m := 1; m <= 12; m++ {
		keys[m-1] = MonthKey(year, m)
	}
	return keys
}

// ParseMonthKey splits a "YYYY-MM" key into its year and month. Keys must be
// zero-padded and name a real month; anything else is rejected.
func ParseMonthKey(key string) (int, int, error) {
	parts := strings.Split(key, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("malformed month key %q", key)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed month key %q", key)
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("malformed month key %q", key)
	}

	return year, month, nil
}

// MonthKeyInYear reports whether key is a well-formed month key belonging to
// the given calendar year.
func MonthKeyInYear(key string, year int) bool {
	y, _, err := ParseMonthKey(key)
	return err == nil && y == year
}
