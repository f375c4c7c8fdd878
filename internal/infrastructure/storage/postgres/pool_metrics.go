package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolCollector exports pgxpool statistics. Values are read on scrape.
type PoolCollector struct {
	pool *pgxpool.Pool

	conns           *prometheus.Desc
	maxConns        *prometheus.Desc
	acquireTotal    *prometheus.Desc
	acquireDuration *prometheus.Desc
	emptyAcquire    *prometheus.Desc
}

var _ prometheus.Collector = (*PoolCollector)(nil)

// NewPoolCollector creates a collector for pool.
func NewPoolCollector(pool *Pool) *PoolCollector {
	return &PoolCollector{
		pool: pool.Pool,
		conns: prometheus.NewDesc("db_pool_connections",
			"Connections in the pool by state.", []string{"state"}, nil),
		maxConns: prometheus.NewDesc("db_pool_connections_max",
			"Maximum size of the pool.", nil, nil),
		acquireTotal: prometheus.NewDesc("db_pool_acquire_total",
			"Successful connection acquisitions.", nil, nil),
		acquireDuration: prometheus.NewDesc("db_pool_acquire_duration_seconds_total",
			"Time spent waiting for a connection.", nil, nil),
		emptyAcquire: prometheus.NewDesc("db_pool_empty_acquire_total",
			"Acquisitions that had to wait because the pool was empty.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.conns
	ch <- c.maxConns
	ch <- c.acquireTotal
	ch <- c.acquireDuration
	ch <- c.emptyAcquire
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	stat := c.pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.conns, prometheus.GaugeValue, float64(stat.IdleConns()), "idle")
	ch <- prometheus.MustNewConstMetric(c.conns, prometheus.GaugeValue, float64(stat.AcquiredConns()), "acquired")
	ch <- prometheus.MustNewConstMetric(c.conns, prometheus.GaugeValue, float64(stat.ConstructingConns()), "constructing")
	ch <- prometheus.MustNewConstMetric(c.maxConns, prometheus.GaugeValue, float64(stat.MaxConns()))
	ch <- prometheus.MustNewConstMetric(c.acquireTotal, prometheus.CounterValue, float64(stat.AcquireCount()))
	ch <- prometheus.MustNewConstMetric(c.acquireDuration, prometheus.CounterValue, stat.AcquireDuration().Seconds())
	ch <- prometheus.MustNewConstMetric(c.emptyAcquire, prometheus.CounterValue, float64(stat.EmptyAcquireCount()))
}
