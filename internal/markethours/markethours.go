// Package markethours answers whether the NSE cash market is trading.
package markethours

import (
	"fmt"
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30).
var IST = time.FixedZone("IST", 5*3600+30*60)

const (
	DefaultOpen  = "09:15"
	DefaultClose = "15:30"
)

// Config is the market_hours config section.
type Config struct {
	Open     string   `yaml:"open" default:"09:15" validate:"datetime=15:04"`
	Close    string   `yaml:"close" default:"15:30" validate:"datetime=15:04"`
	Holidays []string `yaml:"holidays" validate:"dive,datetime=2006-01-02"`
}

// Calendar holds trading hours and the holiday list, all in IST.
type Calendar struct {
	openMin, closeMin int
	holidays          map[string]bool
}

// NewCalendar parses the configured session and holidays.
func NewCalendar(cfg Config) (*Calendar, error) {
	open, err := minuteOfDay(orDefault(cfg.Open, DefaultOpen))
	if err != nil {
		return nil, fmt.Errorf("market open: %w", err)
	}
	cl, err := minuteOfDay(orDefault(cfg.Close, DefaultClose))
	if err != nil {
		return nil, fmt.Errorf("market close: %w", err)
	}
	if cl <= open {
		return nil, fmt.Errorf("market close %s is not after open %s", cfg.Close, cfg.Open)
	}

	c := &Calendar{openMin: open, closeMin: cl, holidays: make(map[string]bool, len(cfg.Holidays))}
	for _, h := range cfg.Holidays {
		d, err := time.ParseInLocation("2006-01-02", h, IST)
		if err != nil {
			return nil, fmt.Errorf("holiday %q: %w", h, err)
		}
		c.holidays[dateKey(d)] = true
	}
	return c, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func minuteOfDay(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func dateKey(t time.Time) string {
	return t.In(IST).Format("2006-01-02")
}

// IsHoliday reports whether the IST date of t is a configured holiday.
func (c *Calendar) IsHoliday(t time.Time) bool {
	return c.holidays[dateKey(t)]
}

// IsTradingDay returns true if t is Monday to Friday and not a holiday.
func (c *Calendar) IsTradingDay(t time.Time) bool {
	wd := t.In(IST).Weekday()
	return wd != time.Saturday && wd != time.Sunday && !c.IsHoliday(t)
}

// IsOpen reports whether t falls inside the session on a trading day.
// Both open and close are inclusive.
func (c *Calendar) IsOpen(t time.Time) bool {
	if !c.IsTradingDay(t) {
		return false
	}
	ist := t.In(IST)
	m := ist.Hour()*60 + ist.Minute()
	return m >= c.openMin && m <= c.closeMin
}

// Close returns the session close on t's IST date.
func (c *Calendar) Close(t time.Time) time.Time {
	ist := t.In(IST)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), c.closeMin/60, c.closeMin%60, 0, 0, IST)
}

// CloseSpec returns a weekday cron spec for the session close, meant for a
// cron running in IST.
func (c *Calendar) CloseSpec() string {
	return fmt.Sprintf("%d %d * * 1-5", c.closeMin%60, c.closeMin/60)
}
