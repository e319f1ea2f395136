// Package date resolves graphite time specifications (from/until) to unix epochs.
package date

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/ansel1/merry"
	merry2 "github.com/ansel1/merry/v2"
)

var errBadTime = errors.New("bad time")

var ErrUnknownTimeUnits = merry.New("unknown time units")
var ErrBadWindow = merry.New("from must be before until")

// parseTime parses a time and returns hours and minutes
func parseTime(s string) (hour, minute int, err error) {
	switch s {
	case "midnight":
		return 0, 0, nil
	case "noon":
		return 12, 0, nil
	case "teatime":
		return 16, 0, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, errBadTime
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, errBadTime
	}

	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, errBadTime
	}

	return hour, minute, nil
}

// ParseInterval converts a relative offset such as "-1h" or "2days" to seconds.
// Several components may be chained ("1h30min").
func ParseInterval(s string, defaultSign int) (int64, error) {
	if len(s) == 0 {
		return 0, nil
	}
	sign := defaultSign

	switch s[0] {
	case '-':
		sign = -1
		s = s[1:]
	case '+':
		sign = 1
		s = s[1:]
	}

	var totalInterval int64
	for len(s) > 0 {
		var j int
		for j < len(s) && '0' <= s[j] && s[j] <= '9' {
			j++
		}
		var offsetStr string
		offsetStr, s = s[:j], s[j:]

		j = 0
		for j < len(s) && (s[j] < '0' || '9' < s[j]) {
			j++
		}
		var unitStr string
		unitStr, s = s[:j], s[j:]

		var units int64
		switch unitStr {
		case "s", "sec", "secs", "second", "seconds":
			units = 1
		case "m", "min", "mins", "minute", "minutes":
			units = 60
		case "h", "hour", "hours":
			units = 60 * 60
		case "d", "day", "days":
			units = 24 * 60 * 60
		case "w", "week", "weeks":
			units = 7 * 24 * 60 * 60
		case "mon", "month", "months":
			units = 30 * 24 * 60 * 60
		case "y", "year", "years":
			units = 365 * 24 * 60 * 60
		default:
			return 0, merry2.Wrap(ErrUnknownTimeUnits, merry2.WithValue("units", unitStr))
		}

		offset, err := strconv.ParseInt(offsetStr, 10, 64)
		if err != nil {
			return 0, merry2.Wrap(err, merry2.WithValue("interval", offsetStr))
		}
		totalInterval += int64(sign) * offset * units
	}

	return totalInterval, nil
}

var TimeFormats = []string{"20060102", "01/02/06"}

// Resolve turns a time specification into a unix epoch relative to now. The second
// return value is false when s is not understood locally; graphite supports more forms
// than this function does, so callers should pass such values through untouched.
func Resolve(s string, now time.Time, tz *time.Location) (int64, bool) {
	if s == "" {
		return 0, false
	}
	if tz == nil {
		tz = time.Local
	}
	now = now.In(tz)

	// relative timestamp
	if s[0] == '-' || s[0] == '+' {
		offset, err := ParseInterval(s, -1)
		if err != nil {
			return 0, false
		}

		return now.Add(time.Duration(offset) * time.Second).Unix(), true
	}

	switch s {
	case "now":
		return now.Unix(), true
	case "midnight", "noon", "teatime":
		yy, mm, dd := now.Date()
		hh, min, _ := parseTime(s)
		return time.Date(yy, mm, dd, hh, min, 0, 0, tz).Unix(), true
	}

	// need to check that len(s) != 8 to avoid turning 20060102 into seconds
	if sint, err := strconv.ParseInt(s, 10, 64); err == nil && len(s) != 8 {
		return sint, true
	}

	s = strings.Replace(s, "_", " ", 1)

	var ts, ds string
	split := strings.Fields(s)

	switch len(split) {
	case 1:
		ds = split[0]
	case 2:
		ts, ds = split[0], split[1]
	default:
		return 0, false
	}

	var t time.Time
dateStringSwitch:
	switch ds {
	case "today":
		t = now
	case "yesterday":
		t = now.AddDate(0, 0, -1)
	case "tomorrow":
		t = now.AddDate(0, 0, 1)
	default:
		for _, format := range TimeFormats {
			var err error
			t, err = time.ParseInLocation(format, ds, tz)
			if err == nil {
				break dateStringSwitch
			}
		}

		return 0, false
	}

	var hour, minute int
	if ts != "" {
		var err error
		hour, minute, err = parseTime(ts)
		if err != nil {
			return 0, false
		}
	}

	yy, mm, dd := t.Date()
	return time.Date(yy, mm, dd, hour, minute, 0, 0, tz).Unix(), true
}

// CheckWindow fails when both ends resolve and from is not strictly before until.
// The error names the resolved times, since graphite itself may read an unusual spec
// differently.
func CheckWindow(from, until string, now time.Time, tz *time.Location) error {
	f, okFrom := Resolve(from, now, tz)
	u, okUntil := Resolve(until, now, tz)
	if !okFrom || !okUntil {
		return nil
	}
	if f >= u {
		return merry2.Wrap(ErrBadWindow,
			merry2.WithValue("from", from),
			merry2.WithValue("until", until),
			merry2.WithMessagef("from %q (%s) must be before until %q (%s), both resolved locally",
				from, time.Unix(f, 0).In(tz).Format(time.RFC3339),
				until, time.Unix(u, 0).In(tz).Format(time.RFC3339),
			),
		)
	}
	return nil
}
