package parking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OperatingHours is the daily window [Open, Close) during which parking may be
// started or extended. Open and Close are offsets from local midnight.
type OperatingHours struct {
	Open     time.Duration
	Close    time.Duration
	Location *time.Location
}

// DefaultOperatingHours returns the 07:00-18:00 window in loc.
func DefaultOperatingHours(loc *time.Location) OperatingHours {
	return OperatingHours{
		Open:     7 * time.Hour,
		Close:    18 * time.Hour,
		Location: loc,
	}
}

// ParseOperatingHours builds a window from "HH:MM" strings.
func ParseOperatingHours(open, closing string, loc *time.Location) (OperatingHours, error) {
	o, err := parseClock(open)
	if err != nil {
		return OperatingHours{}, err
	}
	c, err := parseClock(closing)
	if err != nil {
		return OperatingHours{}, err
	}
	h := OperatingHours{Open: o, Close: c, Location: loc}
	if err := h.Validate(); err != nil {
		return OperatingHours{}, err
	}
	return h, nil
}

// Validate checks that the window is non-empty and within a single day.
func (h OperatingHours) Validate() error {
	if h.Open < 0 || h.Close > 24*time.Hour || h.Open >= h.Close {
		return fmt.Errorf("parking: invalid operating hours %s-%s", formatClock(h.Open), formatClock(h.Close))
	}
	return nil
}

// Contains reports whether t falls inside the window of its local day.
func (h OperatingHours) Contains(t time.Time) bool {
	return !t.Before(h.OpeningTime(t)) && t.Before(h.ClosingTime(t))
}

// OpeningTime returns the opening instant of t's local day.
func (h OperatingHours) OpeningTime(t time.Time) time.Time {
	return h.clockOn(t, h.Open)
}

// ClosingTime returns the closing instant of t's local day.
func (h OperatingHours) ClosingTime(t time.Time) time.Time {
	return h.clockOn(t, h.Close)
}

// MaxHours is the longest whole-hour stay that fits in the window.
func (h OperatingHours) MaxHours() int {
	return int((h.Close - h.Open) / time.Hour)
}

// String renders the window as "07:00-18:00".
func (h OperatingHours) String() string {
	return formatClock(h.Open) + "-" + formatClock(h.Close)
}

// In converts t to the window's time zone.
func (h OperatingHours) In(t time.Time) time.Time {
	return t.In(h.location())
}

func (h OperatingHours) location() *time.Location {
	if h.Location == nil {
		return time.Local
	}
	return h.Location
}

// clockOn builds the wall-clock time from components so DST days keep 07:00 at 07:00.
func (h OperatingHours) clockOn(t time.Time, offset time.Duration) time.Time {
	loc := h.location()
	y, m, d := t.In(loc).Date()
	hh := int(offset / time.Hour)
	mm := int(offset % time.Hour / time.Minute)
	ss := int(offset % time.Minute / time.Second)
	return time.Date(y, m, d, hh, mm, ss, 0, loc)
}

func parseClock(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("parking: clock %q must be HH:MM", s)
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil || hh < 0 || hh > 24 {
		return 0, fmt.Errorf("parking: invalid hour in %q", s)
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil || mm < 0 || mm > 59 || (hh == 24 && mm != 0) {
		return 0, fmt.Errorf("parking: invalid minute in %q", s)
	}
	return time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute, nil
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}
