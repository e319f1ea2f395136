package fasthttp

import (
	"context"
	"errors"
	"time"

	"github.com/ansel1/merry/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/go-graphite/check-graphite/fetcher/helper"
	"github.com/go-graphite/check-graphite/fetcher/types"
	"github.com/go-graphite/check-graphite/internal/dns"
	"github.com/go-graphite/check-graphite/pkg/tlsconfig"
	util "github.com/go-graphite/check-graphite/util/ctx"
)

type HTTPClient struct {
	logger *zap.Logger
	config *types.Backend

	Client *fasthttp.Client
}

func (c *HTTPClient) Get(ctx context.Context, logger *zap.Logger, server, uri string) ([]byte, error) {
	logger = logger.With(
		zap.String("function", "HTTPClient.Get"),
		zap.String("type", types.ClientFastHTTP),
		zap.String("server", server),
		zap.String("uri", server+uri),
	)

	req := fasthttp.AcquireRequest()
	res := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(res)
	}()

	req.SetRequestURI(server + uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "text/plain")
	req = util.FastHTTPMarshalCtx(ctx, req, util.HeaderUUIDAPI)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeouts.Render)
	}

	err := c.Client.DoDeadline(req, res, deadline)
	if err != nil {
		logger.Debug("error fetching result",
			zap.Error(err),
		)
		if errors.Is(err, fasthttp.ErrTimeout) {
			return nil, merry.Wrap(types.ErrTimeoutExceeded,
				merry.WithValue("server", server),
				merry.WithCause(err),
			)
		}
		return nil, helper.RequestError(err, server)
	}
	if ctx.Err() != nil {
		return nil, helper.RequestError(ctx.Err(), server)
	}

	body, err := res.BodyUncompressed()
	if err != nil {
		return nil, merry.Wrap(err,
			merry.WithHTTPCode(res.StatusCode()),
			merry.WithValue("server", server),
		)
	}

	code := res.StatusCode()
	if code < 200 || code > 299 {
		logger.Debug("unexpected status code",
			zap.Int("http_code", code),
		)
		return nil, helper.HttpError(code, body, server)
	}

	// body is owned by res, which goes back to the pool
	b := make([]byte, len(body))
	copy(b, body)

	return b, nil
}

func New(logger *zap.Logger, config *types.Backend) (*HTTPClient, error) {
	logger = logger.With(zap.String("type", types.ClientFastHTTP))
	logger.Debug("creating new fasthttp client")

	c := &fasthttp.Client{
		MaxConnsPerHost: 1,
		ReadTimeout:     config.Timeouts.Render,
		DialTimeout:     dns.GetFastHTTPDialFuncWithTimeout(config.Timeouts.Connect, config.KeepAliveInterval),
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
		c.TLSConfig = tlsConfig
	}

	return &HTTPClient{
		logger: logger,
		config: config,
		Client: c,
	}, nil
}
