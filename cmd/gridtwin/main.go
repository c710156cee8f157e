package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gridtwin/pkg/logging"
	"gridtwin/pkg/metrics"
	"gridtwin/pkg/study"
	"gridtwin/pkg/topology"
	"gridtwin/pkg/validation"
)

func main() {
	configPath := flag.String("config", "", "Corridor config YAML (default: built-in reference corridor)")
	windMW := flag.Float64("wind", -1, "Override northern wind generation (MW)")
	loadMW := flag.Float64("load", -1, "Override southern industrial load (MW)")
	hvdc := flag.Bool("hvdc", true, "Keep the DC corridor in service")
	workers := flag.Int("workers", 1, "Parallel scenario workers")
	solveTimeout := flag.Duration("solve-timeout", 10*time.Second, "Per-scenario solve budget")
	metricsAddr := flag.String("metrics-listen", "", "Expose Prometheus metrics on this address (e.g. :9090)")
	flag.Parse()

	logger := logging.NewDefaultLogger()

	cfg := topology.DefaultConfig()
	if *configPath != "" {
		loaded, err := topology.LoadConfig(*configPath)
		if err != nil {
			logger.Error("failed to load config", logging.Error(err))
			os.Exit(1)
		}
		cfg = loaded
	}
	if *windMW >= 0 {
		cfg.WindMW = *windMW
	}
	if *loadMW >= 0 {
		cfg.LoadMW = *loadMW
	}
	cfg.HVDC.Enabled = *hvdc

	// Flag overrides bypass LoadConfig, so re-check before running.
	if err := validation.ValidateConfig(cfg); err != nil {
		logger.Error("invalid corridor config", logging.Error(err))
		os.Exit(1)
	}

	reg := metrics.DefaultRegistry()
	if *metricsAddr != "" {
		go serveMetrics(logger, reg, *metricsAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("running contingency study",
		logging.Float64("wind_mw", cfg.WindMW),
		logging.Float64("load_mw", cfg.LoadMW),
		logging.Bool("hvdc", cfg.HVDC.Enabled),
		logging.Int("workers", *workers))

	rep, err := study.Run(ctx, cfg,
		study.WithLogger(logger),
		study.WithMetrics(reg),
		study.WithWorkers(*workers),
		study.WithSolveTimeout(*solveTimeout))
	if err != nil {
		logger.Error("study failed", logging.Error(err))
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}

	fmt.Println(renderReport(rep))

	if !rep.N1Secure {
		os.Exit(2)
	}
}

func serveMetrics(logger logging.Logger, reg *metrics.Registry, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg.GetPrometheusRegistry(), promhttp.HandlerOpts{}))
	logger.Info("metrics listener starting", logging.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics listener failed", logging.Error(err))
	}
}
