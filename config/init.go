package config

import (
	"bytes"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ansel1/merry"
	merry2 "github.com/ansel1/merry/v2"
	"github.com/lomik/zapwriter"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/go-graphite/check-graphite/date"
	"github.com/go-graphite/check-graphite/fetcher/types"
)

func configError(format string, args ...interface{}) error {
	return merry2.Wrap(ErrConfig, merry2.WithMessagef(format, args...))
}

// SetUpViper reads the optional config file into v and sets up env overrides and defaults.
// Files ending with .toml are parsed as TOML, everything else as YAML.
func SetUpViper(v *viper.Viper, logger *zap.Logger, configPath string, viperPrefix string) error {
	if configPath != "" {
		b, err := os.ReadFile(configPath)
		if err != nil {
			return merry2.Wrap(ErrConfig,
				merry2.WithValue("config_path", configPath),
				merry2.WithMessagef("error reading config file %q: %v", configPath, err),
			)
		}

		if strings.HasSuffix(configPath, ".toml") {
			logger.Debug("will parse config as toml",
				zap.String("config_file", configPath),
			)
			v.SetConfigType("TOML")
		} else {
			logger.Debug("will parse config as yaml",
				zap.String("config_file", configPath),
			)
			v.SetConfigType("YAML")
		}
		err = v.ReadConfig(bytes.NewBuffer(b))
		if err != nil {
			return merry2.Wrap(ErrConfig,
				merry2.WithValue("config_path", configPath),
				merry2.WithMessagef("failed to parse config %q: %v", configPath, err),
			)
		}
	}

	if viperPrefix != "" {
		v.SetEnvPrefix(viperPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetDefault("graphiteURL", "http://localhost/")
	v.SetDefault("until", "now")
	v.SetDefault("warn", 0)
	v.SetDefault("crit", 0)
	v.SetDefault("perfdata", false)
	v.SetDefault("backend.fetchClientType", types.ClientStd)
	v.SetDefault("backend.timeouts.render", "10s")
	v.SetDefault("backend.timeouts.connect", "1s")
	v.SetDefault("backend.keepAliveInterval", "30s")
	v.SetDefault("backend.maxTries", 1)
	v.SetDefault("backend.useCachingDNSResolver", false)
	v.SetDefault("backend.dnsRefreshInterval", "60s")
	v.AutomaticEnv()

	return nil
}

// Load decodes v into a ConfigType. It does not validate the result.
func Load(v *viper.Viper) (*ConfigType, error) {
	cfg := defaultConfig()
	err := v.Unmarshal(&cfg)
	if err != nil {
		return nil, merry2.Wrap(ErrConfig,
			merry2.WithMessagef("failed to parse config: %v", err),
		)
	}

	cfg.HasPercent = v.IsSet("percent")
	cfg.HasThreshold = v.IsSet("threshold")
	cfg.Targets = splitTargets(cfg.Targets)
	cfg.Backend.FillDefaults()

	if cfg.Verbose {
		for i := range cfg.Logger {
			cfg.Logger[i].Level = "debug"
		}
	}

	return &cfg, nil
}

// splitTargets accepts both repeated and comma separated target lists.
func splitTargets(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		for _, s := range strings.Split(t, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// Validate checks the options before anything is sent to graphite.
func (c *ConfigType) Validate(now time.Time) error {
	u, err := url.Parse(c.GraphiteURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return configError("graphite url %q must be an http(s) url", c.GraphiteURL)
	}

	if len(c.Targets) == 0 {
		return configError("at least one target is required")
	}
	if c.From == "" {
		return configError("from is required")
	}
	if c.Until == "" {
		return configError("until must not be empty")
	}

	switch {
	case c.HasPercent && c.HasThreshold:
		return configError("percent and threshold are mutually exclusive")
	case !c.HasPercent && !c.HasThreshold:
		return configError("one of percent or threshold is required")
	}
	if c.HasPercent && (c.Percent < 0 || c.Percent > 100) {
		return configError("percent must be within 0..100, got %v", c.Percent)
	}

	switch {
	case c.Over && c.Under:
		return configError("over and under are mutually exclusive")
	case !c.Over && !c.Under:
		return configError("one of over or under is required")
	}

	if c.Warn < 0 || c.Crit < 0 {
		return configError("warn and crit counts must not be negative")
	}

	switch c.Backend.FetchClientType {
	case types.ClientStd, types.ClientFastHTTP:
	default:
		return configError("unsupported fetch client type %q", c.Backend.FetchClientType)
	}

	if err := date.CheckWindow(c.From, c.Until, now, time.Local); err != nil {
		return merry2.Wrap(ErrConfig, merry2.WithMessage(err.Error()))
	}

	return nil
}

// SetUpLogger applies the logger configuration and enables merry stack traces when
// any logger runs at debug level.
func (c *ConfigType) SetUpLogger() error {
	err := zapwriter.ApplyConfig(c.Logger)
	if err != nil {
		return merry2.Wrap(ErrConfig,
			merry2.WithMessagef("failed to initialize logger with requested configuration: %v", err),
		)
	}

	needStackTrace := false
	for _, l := range c.Logger {
		if strings.ToLower(l.Level) == "debug" {
			needStackTrace = true
			break
		}
	}
	merry.SetStackCaptureEnabled(needStackTrace)

	return nil
}
