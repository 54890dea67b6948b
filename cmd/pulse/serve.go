package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pulseui/pulse/internal/config"
	"github.com/pulseui/pulse/pkg/inspect"
	"github.com/pulseui/pulse/pkg/pulse"
	"github.com/pulseui/pulse/pkg/telemetry"
)

func serveCmd(configDir *string) *cobra.Command {
	var (
		addr    string
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the inspector server with a demo workload",
		Long: `Start the inspector HTTP server.

Endpoints:
  /healthz   liveness check
  /stats     engine counters as JSON
  /ws        live engine event stream over WebSocket
  /metrics   Prometheus exposition

A demo workload drives the engine so there is activity to observe.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configDir)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Inspector.Addr = addr
			}
			if logFile != "" {
				cfg.Log.File = logFile
			}

			logger, closeLog, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			srv := inspect.NewServer(inspect.WithLogger(logger))

			probes := []pulse.Probe{srv.Probe()}
			if cfg.Metrics.Enabled {
				probes = append(probes, telemetry.NewMetricsProbe(
					telemetry.WithNamespace(cfg.Metrics.Namespace),
					telemetry.WithSubsystem(cfg.Metrics.Subsystem),
				))
			}
			pulse.SetProbe(pulse.CombineProbes(probes...))

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go runWorkload(ctx)

			return srv.ListenAndServe(ctx, cfg.Inspector.Addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides pulse.yaml)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Also write logs to this file")

	return cmd
}

// runWorkload drives a small reactive pipeline until ctx is cancelled,
// so the inspector has live activity to stream.
func runWorkload(ctx context.Context) {
	pulse.CreateRoot(func(dispose func()) any {
		defer dispose()

		tick := pulse.NewSignal(0)
		parity := pulse.NewMemo(func() int { return tick.Get() % 2 })

		pulse.CreateEffect(func() pulse.Cleanup {
			_ = parity.Get()
			return nil
		})

		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				tick.Update(func(n int) int { return n + 1 })
			}
		}
	})
}
