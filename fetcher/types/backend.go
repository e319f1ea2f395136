package types

import (
	"time"

	"github.com/go-graphite/check-graphite/pkg/tlsconfig"
)

const (
	ClientStd      = "std"
	ClientFastHTTP = "fasthttp"
)

// Backend describes how the graphite render endpoint is reached.
type Backend struct {
	FetchClientType       string               `mapstructure:"fetchClientType"`
	Timeouts              Timeouts             `mapstructure:"timeouts"`
	KeepAliveInterval     time.Duration        `mapstructure:"keepAliveInterval"`
	MaxTries              int                  `mapstructure:"maxTries"`
	ForceAttemptHTTP2     bool                 `mapstructure:"forceAttemptHTTP2"`
	UseCachingDNSResolver bool                 `mapstructure:"useCachingDNSResolver"`
	DNSRefreshInterval    time.Duration        `mapstructure:"dnsRefreshInterval"`
	TLSClientConfig       *tlsconfig.TLSConfig `mapstructure:"tls"`
}

func (b *Backend) FillDefaults() {
	if b.FetchClientType == "" {
		b.FetchClientType = ClientStd
	}

	if b.Timeouts.Render == 0 {
		b.Timeouts.Render = 10 * time.Second
	}

	if b.Timeouts.Connect == 0 {
		b.Timeouts.Connect = time.Second
	}

	if b.KeepAliveInterval == 0 {
		b.KeepAliveInterval = 30 * time.Second
	}

	if b.MaxTries <= 0 {
		b.MaxTries = 1
	}

	if b.DNSRefreshInterval == 0 {
		b.DNSRefreshInterval = time.Minute
	}
}
