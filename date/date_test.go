package date

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 16 Aug 1994 15:30
var now = time.Date(1994, time.August, 16, 15, 30, 0, 100, time.UTC)

func TestResolve(t *testing.T) {
	const shortForm = "15:04 2006-Jan-02"

	var tests = []struct {
		input  string
		output string
	}{
		{"now", "15:30 1994-Aug-16"},
		{"midnight", "00:00 1994-Aug-16"},
		{"noon", "12:00 1994-Aug-16"},
		{"teatime", "16:00 1994-Aug-16"},
		{"tomorrow", "00:00 1994-Aug-17"},
		{"yesterday", "00:00 1994-Aug-15"},

		{"noon 08/12/94", "12:00 1994-Aug-12"},
		{"midnight 20060812", "00:00 2006-Aug-12"},
		{"noon tomorrow", "12:00 1994-Aug-17"},

		{"17:04_19940812", "17:04 1994-Aug-12"},
		{"-1day", "15:30 1994-Aug-15"},
		{"-1h30min", "14:00 1994-Aug-16"},
		{"19940812", "00:00 1994-Aug-12"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			want, err := time.ParseInLocation(shortForm, tt.output, time.UTC)
			require.NoError(t, err)

			got, ok := Resolve(tt.input, now, time.UTC)
			require.True(t, ok)
			assert.Equal(t, want.Unix(), got)
		})
	}
}

func TestResolveEpoch(t *testing.T) {
	got, ok := Resolve("1700000000", now, time.UTC)
	require.True(t, ok)
	assert.Equal(t, int64(1700000000), got)
}

func TestResolveUnknown(t *testing.T) {
	for _, s := range []string{"", "-1fortnight", "somewhen", "25:00_20240101", "noon on tuesday"} {
		t.Run(s, func(t *testing.T) {
			_, ok := Resolve(s, now, time.UTC)
			assert.False(t, ok)
		})
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"", 0},
		{"1h", -3600},
		{"-1h", -3600},
		{"+1h", 3600},
		{"2days", -2 * 86400},
		{"1w1d", -8 * 86400},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseInterval(tt.input, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseInterval("1x", -1)
	assert.True(t, errors.Is(err, ErrUnknownTimeUnits))

	_, err = ParseInterval("h", -1)
	assert.Error(t, err)
}

func TestCheckWindow(t *testing.T) {
	tests := []struct {
		from, until string
		wantErr     bool
	}{
		{"-1h", "now", false},
		{"-2days", "-1day", false},
		{"now", "-1h", true},
		{"now", "now", true},
		{"-1h", "someday", false},
		{"someday", "now", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+".."+tt.until, func(t *testing.T) {
			err := CheckWindow(tt.from, tt.until, now, time.UTC)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrBadWindow))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckWindowMessage(t *testing.T) {
	err := CheckWindow("now", "-1h", now, time.UTC)
	require.Error(t, err)
	assert.Equal(t,
		`from "now" (1994-08-16T15:30:00Z) must be before until "-1h" (1994-08-16T14:30:00Z), both resolved locally`,
		err.Error(),
	)
}
