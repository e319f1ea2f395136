// Package fetcher queries graphite's render API in raw format and aggregates the reply.
package fetcher

import (
	"bufio"
	"bytes"
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/ansel1/merry/v2"
	"github.com/dustin/go-humanize"
	"github.com/jpillora/backoff"
	"go.uber.org/zap"

	"github.com/go-graphite/check-graphite/fetcher/helper"
	"github.com/go-graphite/check-graphite/fetcher/httpclient"
	"github.com/go-graphite/check-graphite/fetcher/types"
	"github.com/go-graphite/check-graphite/rawdata"
	util "github.com/go-graphite/check-graphite/util/ctx"
)

// Query is a single render request.
type Query struct {
	Targets []string
	From    string
	Until   string
}

type Fetcher struct {
	logger  *zap.Logger
	baseURL string
	config  types.Backend
	client  httpclient.Client

	backoff *backoff.Backoff
}

type Option func(*Fetcher)

// WithLogger sets the logger, the default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithClient replaces the http client built from the backend config.
func WithClient(c httpclient.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

func New(baseURL string, config types.Backend, opts ...Option) (*Fetcher, error) {
	config.FillDefaults()

	f := &Fetcher{
		logger:  zap.NewNop(),
		baseURL: strings.TrimRight(baseURL, "/"),
		config:  config,
		backoff: &backoff.Backoff{
			Min:    100 * time.Millisecond,
			Max:    2 * time.Second,
			Factor: 2,
			Jitter: true,
		},
	}
	for _, o := range opts {
		o(f)
	}

	if f.client == nil {
		c, err := httpclient.GetClient(f.logger, &f.config)
		if err != nil {
			return nil, err
		}
		f.client = c
	}

	return f, nil
}

// RenderURI builds the path and query of the render request. Parameter order is
// targets, from, until, rawData.
func RenderURI(q Query) string {
	params := make([]string, 0, len(q.Targets)+3)
	for _, t := range q.Targets {
		params = append(params, "target="+url.QueryEscape(t))
	}
	params = append(params,
		"from="+url.QueryEscape(q.From),
		"until="+url.QueryEscape(q.Until),
		"rawData=true",
	)

	return "/render?" + strings.Join(params, "&")
}

// URL returns the full render url for q.
func (f *Fetcher) URL(q Query) string {
	return f.baseURL + RenderURI(q)
}

// Fetch requests q and returns the column-wise sums of all returned series.
func (f *Fetcher) Fetch(ctx context.Context, q Query) (rawdata.Series, error) {
	if len(q.Targets) == 0 {
		return nil, types.ErrNoTargets
	}

	if util.GetUUID(ctx) == "" {
		ctx = util.WithNewUUID(ctx)
	}
	uri := RenderURI(q)
	logger := f.logger.With(
		zap.String("carbonapi_uuid", util.GetUUID(ctx)),
		zap.Strings("targets", q.Targets),
		zap.String("from", q.From),
		zap.String("until", q.Until),
	)
	logger.Debug("initiating HTTP request",
		zap.String("url", f.baseURL+uri),
	)

	body, err := f.get(ctx, logger, uri)
	if err != nil {
		return nil, err
	}

	logger.Debug("got response",
		zap.String("size", humanize.Bytes(uint64(len(body)))),
	)
	if ce := logger.Check(zap.DebugLevel, "series in response"); ce != nil {
		ce.Write(zap.Strings("series", seriesNames(body)))
	}

	agg, err := rawdata.Aggregate(body)
	if err != nil {
		return nil, merry.Wrap(err, merry.WithValue("url", f.baseURL+uri))
	}
	series, err := agg.Result()
	if err != nil {
		return nil, merry.Wrap(err, merry.WithValue("url", f.baseURL+uri))
	}

	logger.Debug("aggregated response",
		zap.Int("lines", agg.Lines()),
		zap.Int("columns", len(series)),
	)

	return series, nil
}

func (f *Fetcher) get(ctx context.Context, logger *zap.Logger, uri string) ([]byte, error) {
	f.backoff.Reset()

	var lastErr error
	for attempt := 1; attempt <= f.config.MaxTries; attempt++ {
		actx, cancel := context.WithTimeout(ctx, f.config.Timeouts.Render)
		body, err := f.client.Get(actx, logger, f.baseURL, uri)
		cancel()
		if err == nil {
			return body, nil
		}
		lastErr = err

		if attempt == f.config.MaxTries || !helper.Retryable(err) {
			break
		}

		delay := f.backoff.Duration()
		logger.Warn("request failed, will retry",
			zap.Int("attempt", attempt),
			zap.Int("max_tries", f.config.MaxTries),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, helper.RequestError(ctx.Err(), f.baseURL)
		case <-timer.C:
		}
	}

	if f.config.MaxTries > 1 && helper.Retryable(lastErr) {
		return nil, merry.Wrap(types.ErrMaxTriesExceeded,
			merry.WithValue("server", f.baseURL),
			merry.WithCause(lastErr),
			merry.WithMessagef("%s: %s", types.ErrMaxTriesExceeded.Error(), lastErr.Error()),
		)
	}

	return nil, lastErr
}

func seriesNames(body []byte) []string {
	names := make([]string, 0)
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		if h, err := rawdata.ParseHeader(scanner.Text()); err == nil {
			names = append(names, h.Name)
		}
	}
	return names
}
