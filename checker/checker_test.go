package checker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-graphite/check-graphite/fetcher"
	"github.com/go-graphite/check-graphite/fetcher/types"
	"github.com/go-graphite/check-graphite/nagios"
	"github.com/go-graphite/check-graphite/rawdata"
	"github.com/go-graphite/check-graphite/threshold"
)

type staticFetcher struct {
	series rawdata.Series
	err    error
}

func (f staticFetcher) Fetch(context.Context, fetcher.Query) (rawdata.Series, error) {
	return f.series, f.err
}

func seq(n int) rawdata.Series {
	s := make(rawdata.Series, n)
	for i := range s {
		s[i] = float64(i + 1)
	}
	return s
}

func TestRun(t *testing.T) {
	overAbs10 := threshold.Policy{Direction: threshold.Over, Mode: threshold.AbsoluteAt(10)}

	tests := []struct {
		name     string
		series   rawdata.Series
		err      error
		check    Check
		want     string
		wantCode int
	}{
		{
			name:     "single breach reaches warn",
			series:   rawdata.Series{5, 10, 15},
			check:    Check{Policy: overAbs10, Limits: nagios.Limits{Warn: 1, Crit: 2}},
			want:     "WARNING: 1 data point(s) alerting! (15)",
			wantCode: 1,
		},
		{
			name:   "percent of ceiling reaches crit",
			series: seq(20),
			check: Check{
				Policy: threshold.Policy{Direction: threshold.Over, Mode: threshold.PercentOf(50)},
				Limits: nagios.Limits{Warn: 5, Crit: 10},
			},
			want:     "CRITICAL: 11 data point(s) alerting! (10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20)",
			wantCode: 2,
		},
		{
			name:   "breaches below both limits are ok",
			series: rawdata.Series{5, 4, 3, 2, 1},
			check: Check{
				Policy: threshold.Policy{Direction: threshold.Under, Mode: threshold.AbsoluteAt(4)},
				Limits: nagios.Limits{Warn: 5, Crit: 10},
			},
			want:     "OK: No data point(s) alerting.",
			wantCode: 0,
		},
		{
			name:     "nothing breaches",
			series:   rawdata.Series{1, 2, 3},
			check:    Check{Policy: overAbs10, Limits: nagios.Limits{Warn: 1, Crit: 1}},
			want:     "OK: No data point(s) alerting.",
			wantCode: 0,
		},
		{
			name:     "perfdata",
			series:   rawdata.Series{5, 10, 15},
			check:    Check{Policy: overAbs10, Limits: nagios.Limits{Warn: 1, Crit: 2}, PerfData: true},
			want:     "WARNING: 1 data point(s) alerting! (15) | ceiling=15;;;; breaching=1;1;2;0;",
			wantCode: 1,
		},
		{
			name:     "fetch error",
			err:      types.ErrBackendError,
			check:    Check{Policy: overAbs10},
			want:     "CRITICAL: check failed: error fetching data from backend",
			wantCode: 2,
		},
		{
			name:     "empty series",
			check:    Check{Policy: overAbs10},
			want:     "CRITICAL: check failed: can't evaluate empty series",
			wantCode: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(staticFetcher{series: tt.series, err: tt.err}, nil)
			got := c.Run(context.Background(), tt.check)

			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, tt.wantCode, got.ExitCode())
		})
	}
}

func TestRunAgainstGraphite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("target") {
		case "ok":
			_, _ = w.Write([]byte("a,0,3,1|1,2,3\nb,0,3,1|None,2,100\n"))
		case "empty":
			_, _ = w.Write([]byte("no series matched\n"))
		default:
			http.Error(w, "backend exploded", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	f, err := fetcher.New(srv.URL, types.Backend{})
	require.NoError(t, err)
	c := New(f, nil)

	check := func(target string) Check {
		return Check{
			Query:  fetcher.Query{Targets: []string{target}, From: "-1h", Until: "now"},
			Policy: threshold.Policy{Direction: threshold.Over, Mode: threshold.PercentOf(50)},
			Limits: nagios.Limits{Warn: 1, Crit: 1},
		}
	}

	got := c.Run(context.Background(), check("ok"))
	assert.Equal(t, "CRITICAL: 1 data point(s) alerting! (103)", got.String())
	assert.Equal(t, 2, got.ExitCode())

	got = c.Run(context.Background(), check("empty"))
	assert.Equal(t, nagios.Critical, got.Status)
	assert.Contains(t, got.Message, "no data from graphite")

	got = c.Run(context.Background(), check("error"))
	assert.Equal(t, nagios.Critical, got.Status)
	assert.Equal(t, 2, got.ExitCode())
	assert.Contains(t, got.Message, "HTTP 500")
	assert.Contains(t, got.Message, "backend exploded")
}
