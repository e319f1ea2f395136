package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansel1/merry/v2"
	"github.com/dustin/go-humanize"
	"github.com/lomik/zapwriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/go-graphite/check-graphite/checker"
	"github.com/go-graphite/check-graphite/config"
	"github.com/go-graphite/check-graphite/date"
	"github.com/go-graphite/check-graphite/fetcher"
	"github.com/go-graphite/check-graphite/internal/dns"
	"github.com/go-graphite/check-graphite/nagios"
)

// BuildVersion is replaced at build time.
var BuildVersion = "(development build)"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes a single check and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	v := viper.New()
	var configPath string
	var result nagios.Result

	cmd := &cobra.Command{
		Use:           "check_graphite",
		Short:         "Nagios check for graphite series",
		Long:          "Fetches graphite targets in raw format, sums them point by point and alerts when too many points cross the threshold.",
		Version:       BuildVersion,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			result, err = check(ctx, v, configPath)
			return err
		},
	}
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "optional config file (yaml or toml)")
	flags.StringP("graphite-url", "U", "http://localhost/", "graphite base url")
	flags.StringSliceP("targets", "t", nil, "graphite targets, comma separated or repeated")
	flags.String("from", "", "start of the window (graphite time spec, e.g. -1h)")
	flags.String("until", "now", "end of the window")
	flags.Float64("percent", 0, "threshold as percent of the ceiling value (0-100)")
	flags.Float64("threshold", 0, "absolute threshold")
	flags.Bool("over", false, "alert on values over the threshold")
	flags.Bool("under", false, "alert on values under the threshold")
	flags.IntP("warn", "W", 0, "warn when at least this many points are alerting")
	flags.IntP("crit", "C", 0, "critical when at least this many points are alerting")
	flags.Duration("timeout", 10*time.Second, "render request timeout")
	flags.Bool("perfdata", false, "append nagios performance data")
	flags.BoolP("verbose", "v", false, "debug logging to stderr")

	for key, flag := range map[string]string{
		"graphiteURL":             "graphite-url",
		"targets":                 "targets",
		"from":                    "from",
		"until":                   "until",
		"percent":                 "percent",
		"threshold":               "threshold",
		"over":                    "over",
		"under":                   "under",
		"warn":                    "warn",
		"crit":                    "crit",
		"backend.timeouts.render": "timeout",
		"perfdata":                "perfdata",
		"verbose":                 "verbose",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stdout, nagios.Misconfigured(err.Error()).String())
		fmt.Fprint(stderr, cmd.UsageString())
		return nagios.Unknown.ExitCode()
	}

	// --help and --version
	if result.Message == "" {
		return nagios.OK.ExitCode()
	}

	fmt.Fprintln(stdout, result.String())
	return result.ExitCode()
}

func check(ctx context.Context, v *viper.Viper, configPath string) (nagios.Result, error) {
	err := zapwriter.ApplyConfig([]zapwriter.Config{config.DefaultLoggerConfig})
	if err != nil {
		return nagios.Result{}, err
	}
	logger := zapwriter.Logger("main")

	if err := config.SetUpViper(v, logger, configPath, config.EnvPrefix); err != nil {
		return nagios.Result{}, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nagios.Result{}, err
	}
	if err := cfg.SetUpLogger(); err != nil {
		return nagios.Result{}, err
	}
	logger = zapwriter.Logger("main")

	now := time.Now()
	if err := cfg.Validate(now); err != nil {
		return nagios.Result{}, err
	}

	if from, ok := date.Resolve(cfg.From, now, time.Local); ok {
		logger.Debug("check window",
			zap.String("from", cfg.From),
			zap.String("from_relative", humanize.Time(time.Unix(from, 0))),
			zap.String("until", cfg.Until),
		)
	}

	if cfg.Backend.UseCachingDNSResolver {
		dns.UseDNSCache(ctx, cfg.Backend.DNSRefreshInterval)
	}

	f, err := fetcher.New(cfg.GraphiteURL, cfg.Backend, fetcher.WithLogger(zapwriter.Logger("fetcher")))
	if err != nil {
		return nagios.Result{}, merry.Wrap(config.ErrConfig,
			merry.WithMessagef("failed to set up graphite client: %v", err),
		)
	}

	c := checker.New(f, zapwriter.Logger("checker"))
	return c.Run(ctx, checker.Check{
		Query:    cfg.Query(),
		Policy:   cfg.Policy(),
		Limits:   cfg.Limits(),
		PerfData: cfg.PerfData,
	}), nil
}
