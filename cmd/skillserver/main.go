// Command skillserver serves the skill tools over MCP stdio so that any
// MCP-capable agent runtime can call them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/germanamz/skillbridge/pkg/config"
	"github.com/germanamz/skillbridge/pkg/logging"
	"github.com/germanamz/skillbridge/pkg/metrics"
	"github.com/germanamz/skillbridge/pkg/providers/provider"
	"github.com/germanamz/skillbridge/pkg/skills"
	"github.com/germanamz/skillbridge/pkg/tools/basetools"
	"github.com/germanamz/skillbridge/pkg/tools/mcpserver"
	"github.com/germanamz/skillbridge/pkg/tools/toolbox"
)

const version = "0.1.0"

func main() {
	envFile := flag.String("env", ".env", "path to .env file (ignored if missing)")
	web := flag.Bool("web", false, "also expose visit_webpage")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	flag.Parse()

	if err := run(*envFile, *web, *metricsAddr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(envFile string, web bool, metricsAddr string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	settings, err := config.FromEnv()
	if err != nil {
		return err
	}

	log, err := logging.New(settings.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if !settings.Has(provider.Qwen) {
		log.Warn("HF_TOKEN not set; skill tools will report errors")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tb := buildToolBox(settings, log, web)
	srv := mcpserver.New("skillbridge", version, tb, log)

	if metricsAddr != "" {
		srv.Metrics = metrics.New()
		stopMetrics := serveMetrics(metricsAddr, srv.Metrics, log)
		defer stopMetrics()
	}

	log.Info("serving tools over stdio", zap.Strings("tools", tb.Names()))

	return srv.Serve(ctx, os.Stdin, os.Stdout)
}

func buildToolBox(settings config.Settings, log *zap.Logger, web bool) *toolbox.ToolBox {
	s := skills.New(skills.Options{
		HFToken:     settings.HFToken,
		DatasetRepo: settings.DatasetRepo,
		PromptModel: settings.File.PromptModel,
		HubURL:      settings.File.HubURL,
		Logger:      log,
	})

	tb := toolbox.NewToolBox(s.Tools()...)
	if web {
		tb.Register(basetools.VisitWebpage(basetools.WebOptions{}))
	}
	return tb
}

func serveMetrics(addr string, m *metrics.Metrics, log *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	hs := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = hs.Shutdown(ctx)
	}
}
