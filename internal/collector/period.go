package collector

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// periodStart returns the beginning of a lookback window ending at now.
func periodStart(period string, now time.Time) (time.Time, error) {
	n, unit, err := splitSpan(period)
	if err != nil {
		return time.Time{}, err
	}
	switch unit {
	case "d":
		return now.AddDate(0, 0, -n), nil
	case "wk":
		return now.AddDate(0, 0, -7*n), nil
	case "mo":
		return now.AddDate(0, -n, 0), nil
	case "y":
		return now.AddDate(-n, 0, 0), nil
	}
	return time.Time{}, fmt.Errorf("unsupported period %q", period)
}

// intervalDuration returns the nominal length of one bar.
func intervalDuration(interval string) (time.Duration, error) {
	n, unit, err := splitSpan(interval)
	if err != nil {
		return 0, err
	}
	d := time.Duration(n)
	switch unit {
	case "m":
		return d * time.Minute, nil
	case "h":
		return d * time.Hour, nil
	case "d":
		return d * 24 * time.Hour, nil
	case "wk":
		return d * 7 * 24 * time.Hour, nil
	case "mo":
		return d * 30 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("unsupported interval %q", interval)
}

func splitSpan(s string) (int, string, error) {
	i := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if i <= 0 {
		return 0, "", fmt.Errorf("bad span %q", s)
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil || n <= 0 {
		return 0, "", fmt.Errorf("bad span %q", s)
	}
	return n, s[i:], nil
}

// ValidSpan reports whether period and interval are understood.
func ValidSpan(period, interval string) error {
	if _, err := periodStart(period, time.Now()); err != nil {
		return err
	}
	if _, err := intervalDuration(interval); err != nil {
		return err
	}
	return nil
}
