package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackendFillDefaults(t *testing.T) {
	var b Backend
	b.FillDefaults()

	assert.Equal(t, ClientStd, b.FetchClientType)
	assert.Equal(t, 10*time.Second, b.Timeouts.Render)
	assert.Equal(t, time.Second, b.Timeouts.Connect)
	assert.Equal(t, 30*time.Second, b.KeepAliveInterval)
	assert.Equal(t, 1, b.MaxTries)
	assert.Equal(t, time.Minute, b.DNSRefreshInterval)

	b = Backend{
		FetchClientType: ClientFastHTTP,
		Timeouts:        Timeouts{Render: time.Minute, Connect: 5 * time.Second},
		MaxTries:        3,
	}
	b.FillDefaults()

	assert.Equal(t, ClientFastHTTP, b.FetchClientType)
	assert.Equal(t, time.Minute, b.Timeouts.Render)
	assert.Equal(t, 5*time.Second, b.Timeouts.Connect)
	assert.Equal(t, 3, b.MaxTries)
}
