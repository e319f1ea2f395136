package config

import (
	"time"

	"github.com/ansel1/merry"
	"github.com/lomik/zapwriter"

	"github.com/go-graphite/check-graphite/fetcher"
	"github.com/go-graphite/check-graphite/fetcher/types"
	"github.com/go-graphite/check-graphite/nagios"
	"github.com/go-graphite/check-graphite/threshold"
)

const EnvPrefix = "CHECK_GRAPHITE"

var ErrConfig = merry.New("invalid configuration")

var DefaultLoggerConfig = zapwriter.Config{
	Logger:           "",
	File:             "stderr",
	Level:            "error",
	Encoding:         "console",
	EncodingTime:     "iso8601",
	EncodingDuration: "seconds",
}

type ConfigType struct {
	GraphiteURL string   `mapstructure:"graphiteURL"`
	Targets     []string `mapstructure:"targets"`
	From        string   `mapstructure:"from"`
	Until       string   `mapstructure:"until"`

	Percent   float64 `mapstructure:"percent"`
	Threshold float64 `mapstructure:"threshold"`
	Over      bool    `mapstructure:"over"`
	Under     bool    `mapstructure:"under"`
	Warn      int     `mapstructure:"warn"`
	Crit      int     `mapstructure:"crit"`

	PerfData bool               `mapstructure:"perfdata"`
	Verbose  bool               `mapstructure:"verbose"`
	Logger   []zapwriter.Config `mapstructure:"logger"`
	Backend  types.Backend      `mapstructure:"backend"`

	// set from the viper key presence, percent=0 is a valid threshold
	HasPercent   bool `mapstructure:"-"`
	HasThreshold bool `mapstructure:"-"`
}

func defaultConfig() ConfigType {
	return ConfigType{
		GraphiteURL: "http://localhost/",
		Until:       "now",
		Logger:      []zapwriter.Config{DefaultLoggerConfig},
		Backend: types.Backend{
			FetchClientType:    types.ClientStd,
			Timeouts:           types.Timeouts{Render: 10 * time.Second, Connect: time.Second},
			KeepAliveInterval:  30 * time.Second,
			MaxTries:           1,
			DNSRefreshInterval: time.Minute,
		},
	}
}

// Policy returns the breach comparator described by the threshold options.
func (c *ConfigType) Policy() threshold.Policy {
	var p threshold.Policy
	switch {
	case c.Over:
		p.Direction = threshold.Over
	case c.Under:
		p.Direction = threshold.Under
	}
	switch {
	case c.HasPercent:
		p.Mode = threshold.PercentOf(c.Percent)
	case c.HasThreshold:
		p.Mode = threshold.AbsoluteAt(c.Threshold)
	}
	return p
}

func (c *ConfigType) Limits() nagios.Limits {
	return nagios.Limits{Warn: c.Warn, Crit: c.Crit}
}

func (c *ConfigType) Query() fetcher.Query {
	return fetcher.Query{
		Targets: c.Targets,
		From:    c.From,
		Until:   c.Until,
	}
}
