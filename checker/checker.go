// Package checker runs one graphite check: fetch the series, evaluate it against the
// threshold policy and turn the breaching values into a nagios result.
package checker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/go-graphite/check-graphite/fetcher"
	"github.com/go-graphite/check-graphite/fetcher/helper"
	"github.com/go-graphite/check-graphite/nagios"
	"github.com/go-graphite/check-graphite/rawdata"
	"github.com/go-graphite/check-graphite/threshold"
)

// SeriesFetcher returns the aggregated series for a query.
type SeriesFetcher interface {
	Fetch(ctx context.Context, q fetcher.Query) (rawdata.Series, error)
}

type Check struct {
	Query    fetcher.Query
	Policy   threshold.Policy
	Limits   nagios.Limits
	PerfData bool
}

type Checker struct {
	logger  *zap.Logger
	fetcher SeriesFetcher
}

func New(f SeriesFetcher, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{
		logger:  logger,
		fetcher: f,
	}
}

// Run never fails: fetch and evaluation errors are reported as CRITICAL.
func (c *Checker) Run(ctx context.Context, check Check) nagios.Result {
	t0 := time.Now()
	logger := c.logger.With(
		zap.Strings("targets", check.Query.Targets),
		zap.Stringer("policy", check.Policy),
	)

	series, err := c.fetcher.Fetch(ctx, check.Query)
	if err != nil {
		return c.failed(logger, "failed to fetch series", err)
	}

	res, err := threshold.Evaluate(series, check.Policy)
	if err != nil {
		return c.failed(logger, "failed to evaluate series", err)
	}

	result := nagios.Decide(res.Breaching, check.Limits)
	if check.PerfData {
		result.PerfData = &nagios.PerfData{
			Ceiling:   res.Ceiling,
			Breaching: len(res.Breaching),
			Limits:    check.Limits,
		}
	}

	logger.Debug("check finished",
		zap.Int("points", len(series)),
		zap.Float64("ceiling", res.Ceiling),
		zap.Int("breaching", len(res.Breaching)),
		zap.Int("warn", check.Limits.Warn),
		zap.Int("crit", check.Limits.Crit),
		zap.Stringer("status", result.Status),
		zap.Duration("runtime", time.Since(t0)),
	)

	return result
}

func (c *Checker) failed(logger *zap.Logger, msg string, err error) nagios.Result {
	reason := helper.ErrorMessage(err)
	logger.Error(msg,
		zap.String("reason", reason),
		zap.Error(err),
	)
	return nagios.Failed(reason)
}
