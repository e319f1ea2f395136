package main

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

type outcome struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

type runner struct {
	binary  string
	timeout time.Duration
	logger  *zap.Logger
}

func newRunner(binary string, logger *zap.Logger) *runner {
	return &runner{
		binary:  binary,
		timeout: 30 * time.Second,
		logger:  logger.With(zap.String("binary", binary)),
	}
}

// Run executes the check binary once. A non-zero exit code is not an error.
func (r *runner) Run(ctx context.Context, args []string) (outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.logger.Debug("will start application",
		zap.Strings("args", args),
	)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := outcome{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		r.logger.Error("error running program",
			zap.Strings("args", args),
			zap.String("output", res.Stderr),
			zap.Error(err),
		)
		return res, err
	}

	return res, nil
}
