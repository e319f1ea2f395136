package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ansel1/merry/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/go-graphite/check-graphite/fetcher/helper"
	"github.com/go-graphite/check-graphite/fetcher/types"
	"github.com/go-graphite/check-graphite/rawdata"
)

func TestRenderURI(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{
			name: "single target",
			q:    Query{Targets: []string{"servers.web1.load"}, From: "-1h", Until: "now"},
			want: "/render?target=servers.web1.load&from=-1h&until=now&rawData=true",
		},
		{
			name: "several targets are kept in order",
			q:    Query{Targets: []string{"a.b", "c.d"}, From: "-5min", Until: "now"},
			want: "/render?target=a.b&target=c.d&from=-5min&until=now&rawData=true",
		},
		{
			name: "function targets are escaped",
			q:    Query{Targets: []string{"sumSeries(a.*.b)"}, From: "12:00_20240101", Until: "now"},
			want: "/render?target=sumSeries%28a.%2A.b%29&from=12%3A00_20240101&until=now&rawData=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderURI(tt.q))
		})
	}
}

func TestURLStripsTrailingSlash(t *testing.T) {
	f, err := New("http://graphite.example.com/", types.Backend{})
	require.NoError(t, err)

	got := f.URL(Query{Targets: []string{"a"}, From: "-1h", Until: "now"})
	assert.Equal(t, "http://graphite.example.com/render?target=a&from=-1h&until=now&rawData=true", got)
}

func TestFetch(t *testing.T) {
	var gotQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.RawQuery)
		_, _ = w.Write([]byte("a,1,4,1|1,2,None\nb,1,4,1|3,None,5\n"))
	}))
	defer srv.Close()

	for _, clientType := range []string{types.ClientStd, types.ClientFastHTTP} {
		t.Run(clientType, func(t *testing.T) {
			f, err := New(srv.URL+"/", types.Backend{FetchClientType: clientType}, WithLogger(zap.NewNop()))
			require.NoError(t, err)

			series, err := f.Fetch(context.Background(), Query{Targets: []string{"a", "b"}, From: "-1h", Until: "now"})
			require.NoError(t, err)
			assert.Equal(t, rawdata.Series{4, 2, 5}, series)
			assert.Equal(t, "target=a&target=b&from=-1h&until=now&rawData=true", gotQuery.Load())
		})
	}
}

func TestFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("target") {
		case "empty":
		case "broken":
			_, _ = w.Write([]byte("a,1,2,1|1,x\n"))
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	f, err := New(srv.URL, types.Backend{})
	require.NoError(t, err)

	tests := []struct {
		target string
		want   error
	}{
		{target: "empty", want: rawdata.ErrEmptyResult},
		{target: "broken", want: rawdata.ErrBadValue},
		{target: "fail", want: types.ErrFailedToFetch},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			_, err := f.Fetch(context.Background(), Query{Targets: []string{tt.target}, From: "-1h", Until: "now"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err = f.Fetch(context.Background(), Query{From: "-1h", Until: "now"})
	assert.True(t, errors.Is(err, types.ErrNoTargets))
}

type scriptedClient struct {
	calls   int
	results []error
	body    []byte
}

func (c *scriptedClient) Get(_ context.Context, _ *zap.Logger, server, _ string) ([]byte, error) {
	c.calls++
	if c.calls <= len(c.results) && c.results[c.calls-1] != nil {
		return nil, c.results[c.calls-1]
	}
	return c.body, nil
}

func TestFetchRetries(t *testing.T) {
	serverErr := helper.HttpError(http.StatusBadGateway, nil, "test")
	notFound := helper.HttpError(http.StatusNotFound, nil, "test")
	q := Query{Targets: []string{"a"}, From: "-1h", Until: "now"}

	t.Run("recovers after a server error", func(t *testing.T) {
		c := &scriptedClient{results: []error{serverErr}, body: []byte("a,1,2,1|7\n")}
		f, err := New("http://graphite", types.Backend{MaxTries: 3}, WithClient(c))
		require.NoError(t, err)

		series, err := f.Fetch(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, rawdata.Series{7}, series)
		assert.Equal(t, 2, c.calls)
	})

	t.Run("gives up after max tries", func(t *testing.T) {
		c := &scriptedClient{results: []error{serverErr, serverErr, serverErr}}
		f, err := New("http://graphite", types.Backend{MaxTries: 2}, WithClient(c))
		require.NoError(t, err)

		_, err = f.Fetch(context.Background(), q)
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrMaxTriesExceeded))
		assert.Equal(t, http.StatusBadGateway, merry.HTTPCode(merry.Cause(err)))
		assert.Equal(t, 2, c.calls)
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		c := &scriptedClient{results: []error{notFound}}
		f, err := New("http://graphite", types.Backend{MaxTries: 3}, WithClient(c))
		require.NoError(t, err)

		_, err = f.Fetch(context.Background(), q)
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrFailedToFetch))
		assert.Equal(t, 1, c.calls)
	})

	t.Run("single try by default", func(t *testing.T) {
		c := &scriptedClient{results: []error{serverErr}}
		f, err := New("http://graphite", types.Backend{}, WithClient(c))
		require.NoError(t, err)

		_, err = f.Fetch(context.Background(), q)
		require.Error(t, err)
		assert.False(t, errors.Is(err, types.ErrMaxTriesExceeded))
		assert.Equal(t, 1, c.calls)
	})
}
