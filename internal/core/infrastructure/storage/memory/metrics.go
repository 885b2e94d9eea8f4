package memory

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// storeCollector 将缓存条目数与 BigCache 统计导出为指标
type storeCollector struct {
	store *Store

	entries    *prometheus.Desc
	hits       *prometheus.Desc
	misses     *prometheus.Desc
	collisions *prometheus.Desc
}

// RegisterMetrics 以 <namespace>_<subsystem>_* 注册缓存指标
func RegisterMetrics(reg prometheus.Registerer, namespace, subsystem string, store *Store) error {
	name := func(n string) string { return prometheus.BuildFQName(namespace, subsystem, n) }
	return reg.Register(&storeCollector{
		store:      store,
		entries:    prometheus.NewDesc(name("entries"), "Number of cached entries", nil, nil),
		hits:       prometheus.NewDesc(name("hits_total"), "Cache hits", nil, nil),
		misses:     prometheus.NewDesc(name("misses_total"), "Cache misses", nil, nil),
		collisions: prometheus.NewDesc(name("collisions_total"), "Key hash collisions", nil, nil),
	})
}

func (c *storeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entries
	ch <- c.hits
	ch <- c.misses
	ch <- c.collisions
}

func (c *storeCollector) Collect(ch chan<- prometheus.Metric) {
	n, _ := c.store.Count(context.Background())
	stats := c.store.Stats()
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(n))
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(stats.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(stats.Misses))
	ch <- prometheus.MustNewConstMetric(c.collisions, prometheus.CounterValue, float64(stats.Collisions))
}
