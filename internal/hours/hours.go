package hours

import (
	"errors"
	"fmt"
	"time"

	// US/Mountain and friends must resolve on minimal container images.
	_ "time/tzdata"
)

// ErrOutsideCallingHours rejects automated calling outside the window.
var ErrOutsideCallingHours = errors.New("Outside of calling hours")

const clockLayout = "15:04"

// Config is the BUSINESS_HOURS settings value.
type Config struct {
	Timezone       string `json:"timezone"`
	WeekdayStart   string `json:"weekday_start"`
	WeekdayEnd     string `json:"weekday_end"`
	WeekendEnabled bool   `json:"weekend_enabled"`
	WeekendStart   string `json:"weekend_start"`
	WeekendEnd     string `json:"weekend_end"`
}

// DefaultConfig is Mountain time, 09:30-16:00 on weekdays, weekends off.
func DefaultConfig() Config {
	return Config{
		Timezone:       "US/Mountain",
		WeekdayStart:   "09:30",
		WeekdayEnd:     "16:00",
		WeekendEnabled: false,
		WeekendStart:   "10:00",
		WeekendEnd:     "14:00",
	}
}

// Window is a parsed calling window. Start is inclusive, end exclusive.
type Window struct {
	loc          *time.Location
	weekdayStart int
	weekdayEnd   int
	weekend      bool
	weekendStart int
	weekendEnd   int
}

// Parse validates c. Empty fields fall back to DefaultConfig.
func Parse(c Config) (Window, error) {
	d := DefaultConfig()
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.WeekdayStart == "" {
		c.WeekdayStart = d.WeekdayStart
	}
	if c.WeekdayEnd == "" {
		c.WeekdayEnd = d.WeekdayEnd
	}
	if c.WeekendStart == "" {
		c.WeekendStart = d.WeekendStart
	}
	if c.WeekendEnd == "" {
		c.WeekendEnd = d.WeekendEnd
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return Window{}, fmt.Errorf("hours: load timezone %q: %w", c.Timezone, err)
	}
	w := Window{loc: loc, weekend: c.WeekendEnabled}
	for _, f := range []struct {
		name string
		in   string
		out  *int
	}{
		{"weekday_start", c.WeekdayStart, &w.weekdayStart},
		{"weekday_end", c.WeekdayEnd, &w.weekdayEnd},
		{"weekend_start", c.WeekendStart, &w.weekendStart},
		{"weekend_end", c.WeekendEnd, &w.weekendEnd},
	} {
		v, err := parseClock(f.in)
		if err != nil {
			return Window{}, fmt.Errorf("hours: parse %s: %w", f.name, err)
		}
		*f.out = v
	}
	return w, nil
}

// MustParse is Parse for known-good configs.
func MustParse(c Config) Window {
	w, err := Parse(c)
	if err != nil {
		panic(err)
	}
	return w
}

func parseClock(v string) (int, error) {
	if v == "" {
		return 0, fmt.Errorf("empty clock")
	}
	t, err := time.Parse(clockLayout, v)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Location is the window's timezone.
func (w Window) Location() *time.Location {
	if w.loc == nil {
		return time.UTC
	}
	return w.loc
}

func (w Window) bounds(day time.Weekday) (int, int, bool) {
	if day == time.Saturday || day == time.Sunday {
		if !w.weekend {
			return 0, 0, false
		}
		return w.weekendStart, w.weekendEnd, w.weekendStart < w.weekendEnd
	}
	return w.weekdayStart, w.weekdayEnd, w.weekdayStart < w.weekdayEnd
}

// IsOpen reports whether t falls inside the calling window.
func (w Window) IsOpen(t time.Time) bool {
	local := t.In(w.Location())
	start, end, ok := w.bounds(local.Weekday())
	if !ok {
		return false
	}
	minutes := local.Hour()*60 + local.Minute()
	return minutes >= start && minutes < end
}

// NextOpen returns t when the window is open, otherwise the next opening
// in the window's timezone. The zero time means no day opens.
func (w Window) NextOpen(t time.Time) time.Time {
	if w.IsOpen(t) {
		return t
	}
	loc := w.Location()
	local := t.In(loc)
	for i := 0; i <= 7; i++ {
		day := local.AddDate(0, 0, i)
		start, _, ok := w.bounds(day.Weekday())
		if !ok {
			continue
		}
		open := time.Date(day.Year(), day.Month(), day.Day(), start/60, start%60, 0, 0, loc)
		if open.After(local) {
			return open
		}
	}
	return time.Time{}
}

// Check returns ErrOutsideCallingHours when t is outside the window.
func (w Window) Check(t time.Time) error {
	if !w.IsOpen(t) {
		return ErrOutsideCallingHours
	}
	return nil
}

// Status is the body of GET /check_business_hours.
type Status struct {
	IsBusinessHours bool   `json:"is_business_hours"`
	CurrentTime     string `json:"current_time"`
	Timezone        string `json:"timezone"`
	NextOpen        string `json:"next_open,omitempty"`
}

// StatusAt reports the window state at t.
func (w Window) StatusAt(t time.Time) Status {
	local := t.In(w.Location())
	s := Status{
		IsBusinessHours: w.IsOpen(t),
		CurrentTime:     local.Format(time.RFC3339),
		Timezone:        w.Location().String(),
	}
	if !s.IsBusinessHours {
		if next := w.NextOpen(t); !next.IsZero() {
			s.NextOpen = next.Format(time.RFC3339)
		}
	}
	return s
}
