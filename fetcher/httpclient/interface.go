package httpclient

import (
	"context"

	"github.com/ansel1/merry/v2"
	"go.uber.org/zap"

	"github.com/go-graphite/check-graphite/fetcher/httpclient/fasthttp"
	"github.com/go-graphite/check-graphite/fetcher/httpclient/std"
	"github.com/go-graphite/check-graphite/fetcher/types"
)

// Client performs a GET request and returns the body of a 2xx response.
type Client interface {
	Get(ctx context.Context, logger *zap.Logger, server, uri string) ([]byte, error)
}

func GetClient(logger *zap.Logger, config *types.Backend) (Client, error) {
	switch config.FetchClientType {
	case "", types.ClientStd:
		return std.New(logger, config)
	case types.ClientFastHTTP:
		return fasthttp.New(logger, config)
	default:
		return nil, merry.Wrap(types.ErrUnsupportedClient, merry.WithValue("fetchClientType", config.FetchClientType))
	}
}
