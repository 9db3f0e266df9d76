package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncStats is a point-in-time view of the store and the sync engine.
type SyncStats struct {
	Quotes          int
	LocalOnly       int
	State           string
	LastCycleAt     time.Time
	LastCycleFailed bool
}

// SyncCollector exposes SyncStats as Prometheus gauges. Values are read on
// every scrape.
type SyncCollector struct {
	stats func() SyncStats

	quotes      *prometheus.Desc
	localOnly   *prometheus.Desc
	state       *prometheus.Desc
	lastCycle   *prometheus.Desc
	lastSuccess *prometheus.Desc
}

var _ prometheus.Collector = (*SyncCollector)(nil)

// NewSyncCollector creates a collector backed by stats.
func NewSyncCollector(stats func() SyncStats) *SyncCollector {
	return &SyncCollector{
		stats: stats,
		quotes: prometheus.NewDesc(
			"quote_sync_store_quotes",
			"Number of quotes in the local store.",
			nil, nil,
		),
		localOnly: prometheus.NewDesc(
			"quote_sync_store_local_only_quotes",
			"Number of quotes not carrying the server category.",
			nil, nil,
		),
		state: prometheus.NewDesc(
			"quote_sync_engine_state",
			"Current sync engine state; the series for the active state is 1.",
			[]string{"state"}, nil,
		),
		lastCycle: prometheus.NewDesc(
			"quote_sync_last_cycle_timestamp_seconds",
			"Start time of the most recent sync cycle.",
			nil, nil,
		),
		lastSuccess: prometheus.NewDesc(
			"quote_sync_last_cycle_success",
			"1 if the most recent sync cycle completed without error.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *SyncCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.quotes
	ch <- c.localOnly
	ch <- c.state
	ch <- c.lastCycle
	ch <- c.lastSuccess
}

// Collect implements prometheus.Collector.
func (c *SyncCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()

	ch <- prometheus.MustNewConstMetric(c.quotes, prometheus.GaugeValue, float64(s.Quotes))
	ch <- prometheus.MustNewConstMetric(c.localOnly, prometheus.GaugeValue, float64(s.LocalOnly))
	ch <- prometheus.MustNewConstMetric(c.state, prometheus.GaugeValue, 1, s.State)

	if s.LastCycleAt.IsZero() {
		return
	}

	success := 1.0
	if s.LastCycleFailed {
		success = 0
	}

	ch <- prometheus.MustNewConstMetric(c.lastCycle, prometheus.GaugeValue, float64(s.LastCycleAt.Unix()))
	ch <- prometheus.MustNewConstMetric(c.lastSuccess, prometheus.GaugeValue, success)
}
