package std

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/ansel1/merry/v2"
	"go.uber.org/zap"

	"github.com/go-graphite/check-graphite/fetcher/helper"
	"github.com/go-graphite/check-graphite/fetcher/types"
	"github.com/go-graphite/check-graphite/internal/dns"
	"github.com/go-graphite/check-graphite/pkg/tlsconfig"
	util "github.com/go-graphite/check-graphite/util/ctx"
)

type HTTPClient struct {
	logger *zap.Logger

	httpClient *http.Client
}

func (c *HTTPClient) Get(ctx context.Context, logger *zap.Logger, server, uri string) ([]byte, error) {
	logger = logger.With(
		zap.String("function", "HTTPClient.Get"),
		zap.String("type", types.ClientStd),
	)

	u, err := url.Parse(server + uri)
	if err != nil {
		return nil, merry.Wrap(err, merry.WithValue("server", server))
	}

	logger = logger.With(
		zap.String("server", server),
		zap.String("uri", u.String()),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, merry.Wrap(err, merry.WithValue("server", server))
	}
	req.Header.Set("Accept", "text/plain")
	req = util.MarshalCtx(ctx, req, util.HeaderUUIDAPI)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("error fetching result",
			zap.Error(err),
		)
		return nil, helper.RequestError(err, server)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Debug("error reading body",
			zap.Error(err),
		)
		return nil, helper.RequestError(err, server)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Debug("unexpected status code",
			zap.Int("http_code", resp.StatusCode),
		)
		return nil, helper.HttpError(resp.StatusCode, body, server)
	}

	return body, nil
}

func New(logger *zap.Logger, config *types.Backend) (*HTTPClient, error) {
	logger.Debug("creating new HTTP client",
		zap.Any("config", config),
	)

	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		MaxIdleConns:      1,
		ForceAttemptHTTP2: config.ForceAttemptHTTP2,
		DialContext:       dns.GetDialContextWithTimeout(config.Timeouts.Connect, config.KeepAliveInterval),
	}

	if config.TLSClientConfig != nil {
		tlsConfig, warns, err := tlsconfig.ParseClientTLSConfig(config.TLSClientConfig)
		if err != nil {
			return nil, merry.Prepend(err, "failed to initialize tls config")
		}
		if len(warns) > 0 {
			logger.Warn("insecure options detected, while parsing HTTP Client TLS Config",
				zap.Strings("warnings", warns),
			)
		}
		transport.TLSClientConfig = tlsConfig
	}

	c := &HTTPClient{
		logger: logger,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   config.Timeouts.Render,
		},
	}

	return c, nil
}
