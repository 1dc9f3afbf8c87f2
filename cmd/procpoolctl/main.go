// Command procpoolctl is a small harness for exercising a Pool from the
// command line: "run" spawns a worker for a given executable, prints
// its address, and holds it until interrupted; "stats" scrapes a
// running run's --metrics-addr endpoint and prints the current
// occupancy/spawn/evict/death counters. It is not a client for a
// running pool process — the pool lives in the "run" invocation for
// the duration of the command, same as any other embedder
// (SPEC_FULL.md "cmd/procpoolctl").
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flywheel-systems/procpool"
	"github.com/flywheel-systems/procpool/internal/metrics"
	"github.com/flywheel-systems/procpool/internal/plog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "procpoolctl",
	Short: "Exercise a persistent-worker pool from the command line",
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	plog.Init(plog.Config{
		Level:      plog.Level(logLevel),
		JSONOutput: logJSON,
	})
}

var runCmd = &cobra.Command{
	Use:   "run -- EXECUTABLE [ARGS...]",
	Short: "Acquire one worker, print its address, and hold it until interrupted",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workdirBase, _ := cmd.Flags().GetString("workdir")
		capacity, _ := cmd.Flags().GetInt("capacity")
		portTimeout, _ := cmd.Flags().GetDuration("port-timeout")
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

		reg := prometheus.NewRegistry()
		metrics.MustRegister(reg)
		if metricsAddr != "" {
			go serveMetrics(metricsAddr, reg)
		}

		pool, err := procpool.New(procpool.Config{
			WorkdirBase:     workdirBase,
			Capacity:        capacity,
			PortReadTimeout: portTimeout,
		})
		if err != nil {
			return fmt.Errorf("creating pool: %w", err)
		}
		defer pool.Close()

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		spec := procpool.ProcessSpec{
			Name:       args[0],
			Executable: args[0],
			Args:       args[1:],
			Env:        map[string]string{},
		}

		b, err := pool.Acquire(ctx, spec)
		if err != nil {
			return fmt.Errorf("acquiring worker: %w", err)
		}

		addr, err := b.Address()
		if err != nil {
			return fmt.Errorf("reading address: %w", err)
		}
		fmt.Printf("worker listening on %s\n", addr)
		fmt.Println("press Ctrl+C to release")

		<-ctx.Done()
		fmt.Println("\nreleasing...")
		return b.Release()
	},
}

func init() {
	runCmd.Flags().String("workdir", os.TempDir(), "Base directory for worker workdirs")
	runCmd.Flags().Int("capacity", 4, "Maximum concurrent worker slots")
	runCmd.Flags().Duration("port-timeout", 10*time.Second, "How long to wait for a spawned worker to advertise its port")
	runCmd.Flags().String("metrics-addr", "", "If set, serve Prometheus metrics on this address (e.g. 127.0.0.1:9191)")
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	plog.WithComponent("procpoolctl").Info().Str("addr", addr).Msg("serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		plog.WithComponent("procpoolctl").Error().Err(err).Msg("metrics server exited")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
