package dns

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/lomik/zapwriter"
	"github.com/rs/dnscache"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var (
	mu       sync.RWMutex
	resolver *dnscache.Resolver
)

func getResolver() *dnscache.Resolver {
	mu.RLock()
	defer mu.RUnlock()
	return resolver
}

func dialResolved(ctx context.Context, r *dnscache.Resolver, dialer *net.Dialer, network, addr string) (conn net.Conn, err error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	ips, err := r.LookupHost(ctx, host)
	if err != nil {
		return nil, err
	}
	for _, ip := range ips {
		conn, err = dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
		if err == nil {
			break
		}
	}
	return
}

func GetFastHTTPDialFuncWithTimeout(dialTimeout, keepaliveTimeout time.Duration) fasthttp.DialFuncWithTimeout {
	logger := zapwriter.Logger("dns")
	r := getResolver()
	if r == nil {
		logger.Debug("no caching dns initialized, will return default HTTPDialer")
		return nil
	}

	dialer := &net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: keepaliveTimeout,
	}

	return func(addr string, timeout time.Duration) (net.Conn, error) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return dialResolved(ctx, r, dialer, "tcp", addr)
	}
}

func GetDialContextWithTimeout(dialTimeout, keepaliveTimeout time.Duration) func(ctx context.Context, network string, addr string) (conn net.Conn, err error) {
	logger := zapwriter.Logger("dns")
	dialer := &net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: keepaliveTimeout,
	}
	r := getResolver()
	if r == nil {
		logger.Debug("no caching dns initialized, will return typical DialContext")
		return dialer.DialContext
	}

	logger.Debug("returning caching DialContext")
	return func(ctx context.Context, network string, addr string) (net.Conn, error) {
		return dialResolved(ctx, r, dialer, network, addr)
	}
}

// UseDNSCache installs the caching resolver and refreshes it every dnsRefreshTime until ctx is done.
func UseDNSCache(ctx context.Context, dnsRefreshTime time.Duration) {
	logger := zapwriter.Logger("dns")
	r := &dnscache.Resolver{}

	mu.Lock()
	resolver = r
	mu.Unlock()

	go func() {
		ticker := time.NewTicker(dnsRefreshTime)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logger.Debug("cache refreshed")
				r.Refresh(true)
			}
		}
	}()

	logger.Debug("caching dns resolver initialized",
		zap.Duration("refreshTime", dnsRefreshTime),
	)
}

// Reset drops the caching resolver.
func Reset() {
	mu.Lock()
	resolver = nil
	mu.Unlock()
}
