package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

type MainConfig struct {
	Version   string      `yaml:"version"`
	Test      *TestSchema `yaml:"test"`
	Listeners []Listener  `yaml:"listeners"`
}

type Listener struct {
	Address        string              `yaml:"address"`
	Code           int                 `yaml:"httpCode"`
	ShuffleResults bool                `yaml:"shuffleResults"`
	EmptyBody      bool                `yaml:"emptyBody"`
	Expressions    map[string]Response `yaml:"expressions"`
}

type listener struct {
	Listener
	logger *zap.Logger
}

func newListener(c Listener, logger *zap.Logger) *listener {
	l := &listener{
		Listener: c,
		logger:   logger.With(zap.String("listener", c.Address)),
	}
	if l.Address == "" {
		l.Address = ":9070"
	}
	if l.Code == 0 {
		l.Code = http.StatusOK
	}
	return l
}

func (l *listener) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/render", l.renderHandler)
	mux.HandleFunc("/render/", l.renderHandler)

	handler := handlers.CompressHandler(mux)
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(handler)
}

func loadConfig(path string) (*MainConfig, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &MainConfig{}
	err = yaml.Unmarshal(d, cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	config := flag.String("config", "check_graphite.yaml", "yaml where it would be possible to get data")
	testonly := flag.Bool("testonly", false, "run only the check scenarios")
	test := flag.Bool("test", false, "run check scenarios if present")
	binary := flag.String("binary", "check_graphite", "check binary used by the scenarios")
	flag.Parse()
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}

	if *config == "" {
		logger.Fatal("failed to get config, it should be non-null")
	}

	cfg, err := loadConfig(*config)
	if err != nil {
		logger.Fatal("failed to read config", zap.Error(err))
	}

	logger.Info("starting mockbackend",
		zap.Any("config", cfg),
	)

	httpServers := make([]*http.Server, 0)
	wg := sync.WaitGroup{}
	if !*testonly {
		for _, c := range cfg.Listeners {
			l := newListener(c, logger)

			l.logger.Info("started",
				zap.String("listener", l.Address),
			)

			wg.Add(1)
			server := &http.Server{
				Addr:              l.Address,
				Handler:           l.handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func(h *http.Server) {
				err := h.ListenAndServe()
				if err != nil && err != http.ErrServerClosed {
					logger.Error("failed to start server",
						zap.Error(err),
					)
				}
				wg.Done()
			}(server)

			httpServers = append(httpServers, server)
		}
		logger.Info("all listeners started")
	}

	failed := false
	if cfg.Test != nil && (*test || *testonly) {
		if !*testonly {
			// give listeners a moment to bind
			time.Sleep(500 * time.Millisecond)
		}
		failed = e2eTest(logger, cfg.Test, *binary)
	}

	if !*testonly {
		if *test {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			for i := range httpServers {
				// we don't care about error here
				_ = httpServers[i].Shutdown(ctx)
			}
			cancel()
		}

		wg.Wait()
	}

	if failed {
		// skipcq: CRT-D0011
		os.Exit(1)
	}
}
