// Command smoketest issues one fixed request to every provider whose
// credential is configured and reports pass or fail for each.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/germanamz/skillbridge/pkg/config"
	"github.com/germanamz/skillbridge/pkg/engine"
	"github.com/germanamz/skillbridge/pkg/logging"
	"github.com/germanamz/skillbridge/pkg/metrics"
)

func main() {
	envFile := flag.String("env", ".env", "path to .env file (ignored if missing)")
	render := flag.Bool("render", false, "render answers as markdown")
	timeout := flag.Duration("timeout", 2*time.Minute, "time limit per request")
	flag.Parse()

	failed, err := run(os.Stdout, *envFile, *render, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// run returns the number of failed checks. Deferred cleanup finishes
// before main decides the exit status.
func run(out io.Writer, envFile string, render bool, timeout time.Duration) (int, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return 0, err
	}

	settings, err := config.FromEnv()
	if err != nil {
		return 0, err
	}

	log, err := logging.New(settings.LogLevel)
	if err != nil {
		return 0, err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := &harness{
		out:      out,
		settings: settings,
		newAgent: engine.NewAgent,
		opts: []engine.Option{
			engine.WithSettings(settings),
			engine.WithLogger(log),
			engine.WithMetrics(metrics.New()),
			engine.WithTimeout(timeout),
		},
		render: render,
	}

	return h.run(ctx), nil
}
