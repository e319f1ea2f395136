package main

import (
	"context"
	"strings"
	"time"

	"github.com/ansel1/merry"
	"go.uber.org/zap"

	"github.com/go-graphite/check-graphite/nagios"
)

type TestSchema struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Scenario runs the check binary with Args against the listeners.
type Scenario struct {
	Name     string   `yaml:"name"`
	Delay    int      `yaml:"delay"`
	Args     []string `yaml:"args"`
	Expected Expected `yaml:"expected"`
}

type Expected struct {
	Status   string   `yaml:"status"`
	Output   string   `yaml:"output"`
	Contains []string `yaml:"contains"`
}

func verify(e Expected, o outcome) []error {
	failures := make([]error, 0)

	status, ok := nagios.ParseStatus(e.Status)
	if !ok {
		return append(failures, merry.Errorf("unknown expected status %q", e.Status))
	}

	if o.ExitCode != status.ExitCode() {
		failures = append(failures, merry.Errorf("unexpected exit code, got %v, expected %v",
			o.ExitCode,
			status.ExitCode(),
		))
	}

	line := strings.TrimRight(o.Stdout, "\n")
	if strings.Contains(line, "\n") {
		failures = append(failures, merry.Errorf("expected a single status line, got %q", o.Stdout))
	}

	if !strings.HasPrefix(line, status.String()+": ") {
		failures = append(failures, merry.Errorf("unexpected status line, got %q, expected status %v",
			line,
			status,
		))
	}

	if e.Output != "" && line != e.Output {
		failures = append(failures, merry.Errorf("unexpected output, got %q, expected %q", line, e.Output))
	}

	for _, s := range e.Contains {
		if !strings.Contains(line, s) {
			failures = append(failures, merry.Errorf("output %q does not contain %q", line, s))
		}
	}

	return failures
}

func doTest(ctx context.Context, r *runner, s *Scenario) []error {
	if s.Delay > 0 {
		time.Sleep(time.Duration(s.Delay) * time.Second)
	}

	o, err := r.Run(ctx, s.Args)
	if err != nil {
		return []error{merry.Prepend(err, "failed to run check")}
	}

	return verify(s.Expected, o)
}

func e2eTest(logger *zap.Logger, schema *TestSchema, binary string) bool {
	failed := false
	logger.Info("will run test",
		zap.Int("scenarios", len(schema.Scenarios)),
	)

	r := newRunner(binary, logger)
	for i := range schema.Scenarios {
		s := &schema.Scenarios[i]
		failures := doTest(context.Background(), r, s)

		if len(failures) != 0 {
			failed = true
			logger.Error("test failed",
				zap.String("scenario", s.Name),
				zap.Errors("failures", failures),
			)
		} else {
			logger.Info("test OK",
				zap.String("scenario", s.Name),
			)
		}
	}

	if failed {
		logger.Error("tests failed")
	} else {
		logger.Info("All tests OK")
	}

	return failed
}
