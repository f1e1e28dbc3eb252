// Command kvs-server runs the TCP front end over a log-structured or
// bbolt-backed store directory.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/apostoln/kvs/internal/config"
	"github.com/apostoln/kvs/internal/engine"
	"github.com/apostoln/kvs/internal/engine/boltengine"
	"github.com/apostoln/kvs/internal/engine/kvstore"
	"github.com/apostoln/kvs/internal/metrics"
	"github.com/apostoln/kvs/internal/pool"
	"github.com/apostoln/kvs/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		addr       string
		dir        string
		engineName string
		poolName   string
		threads    int
		backupDir  string
		metricsAddr string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "kvs-server",
		Short: "Run the kvs TCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(verbose)

			eng, err := openEngine(config.Engine(engineName), dir, logger, backupDir)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			var m *metrics.Metrics
			if metricsAddr != "" {
				m = metrics.New(reg)
				if kv, ok := eng.(*kvstore.Engine); ok {
					kv.SetMetrics(m)
				}
				go serveMetrics(metricsAddr, reg, logger)
			}

			p, err := openPool(poolName, threads, logger)
			if err != nil {
				return err
			}
			defer p.Shutdown()

			srv := server.New(addr, p, eng, logger, m)
			return srv.Run(context.Background())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&dir, "dir", "./store", "store directory")
	cmd.Flags().StringVar(&engineName, "engine", string(config.EngineKvs), "storage engine: kvs or bolt")
	cmd.Flags().StringVar(&poolName, "pool", "queue", "thread pool: queue or stealing")
	cmd.Flags().IntVar(&threads, "threads", 4, "worker pool size")
	cmd.Flags().StringVar(&backupDir, "backup-dir", "", "pre-compaction backup directory (kvs engine only)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "optional address to serve Prometheus metrics on")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func openEngine(name config.Engine, dir string, logger zerolog.Logger, backupDir string) (engine.Engine, error) {
	if !name.Valid() {
		return nil, fmt.Errorf("unknown engine %q", name)
	}
	if err := config.CheckOrWriteMarker(dir, name); err != nil {
		return nil, err
	}

	switch name {
	case config.EngineKvs:
		eng, err := kvstore.Open(dir, logger)
		if err != nil {
			return nil, err
		}
		if backupDir != "" {
			eng.SetBackupsDir(backupDir)
		}
		return eng, nil
	case config.EngineBolt:
		return boltengine.Open(dir)
	default:
		return nil, fmt.Errorf("unknown engine %q", name)
	}
}

func openPool(name string, threads int, logger zerolog.Logger) (pool.ThreadPool, error) {
	switch name {
	case "queue":
		return pool.NewQueuePool(threads, logger), nil
	case "stealing":
		return pool.NewStealingPool(threads), nil
	default:
		return nil, fmt.Errorf("unknown pool %q", name)
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	logger.Info().Str("addr", addr).Msg("serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics server stopped")
	}
}
