package dns

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDialContextWithTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	_, port, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)

	Reset()
	assert.Nil(t, GetFastHTTPDialFuncWithTimeout(time.Second, time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	UseDNSCache(ctx, time.Minute)
	defer Reset()

	assert.NotNil(t, GetFastHTTPDialFuncWithTimeout(time.Second, time.Second))

	dial := GetDialContextWithTimeout(time.Second, time.Second)
	conn, err := dial(ctx, "tcp", net.JoinHostPort("127.0.0.1", port))
	require.NoError(t, err)
	_ = conn.Close()

	_, err = dial(ctx, "tcp", "no-port")
	assert.Error(t, err)
}
