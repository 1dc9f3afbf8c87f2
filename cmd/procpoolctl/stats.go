package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

// statsMetrics is the fixed set of procpool gauges/counters worth
// surfacing at a glance; order matches internal/metrics's declaration
// order.
var statsMetrics = []string{
	"procpool_slots_in_use",
	"procpool_slots_total",
	"procpool_workers_spawned_total",
	"procpool_workers_evicted_total",
	"procpool_workers_died_total",
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Scrape and print metrics from a running 'run --metrics-addr' instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		resp, err := http.Get(fmt.Sprintf("http://%s/metrics", addr))
		if err != nil {
			return fmt.Errorf("scraping %s: %w", addr, err)
		}
		defer resp.Body.Close()

		var parser expfmt.TextParser
		families, err := parser.TextToMetricFamilies(resp.Body)
		if err != nil {
			return fmt.Errorf("parsing metrics: %w", err)
		}

		for _, name := range statsMetrics {
			mf, ok := families[name]
			if !ok || len(mf.Metric) == 0 {
				continue
			}
			m := mf.Metric[0]
			var value float64
			switch {
			case m.Gauge != nil:
				value = m.Gauge.GetValue()
			case m.Counter != nil:
				value = m.Counter.GetValue()
			}
			fmt.Printf("%-35s %v\n", name, value)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().String("addr", "127.0.0.1:9191", "Metrics address of a running 'procpoolctl run --metrics-addr' instance")
	rootCmd.AddCommand(statsCmd)
}
