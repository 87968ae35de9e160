package stream

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics Prometheus-метрики менеджера стриминга
type Metrics struct {
	loaded     prometheus.Gauge
	loading    prometheus.Gauge
	freeSlots  prometheus.Gauge
	dispatched prometheus.Counter
	committed  prometheus.Counter
	evicted    prometheus.Counter
	failed     prometheus.Counter
	exhausted  prometheus.Counter
	buildTime  prometheus.Histogram
}

// NewMetrics создаёт метрики и регистрирует их в reg. При reg == nil метрики не регистрируются.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		loaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "blockworld",
			Subsystem: "stream",
			Name:      "chunks_loaded",
			Help:      "Количество загруженных и видимых чанков.",
		}),
		loading: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "blockworld",
			Subsystem: "stream",
			Name:      "chunks_loading",
			Help:      "Количество чанков с фоновой сборкой в процессе.",
		}),
		freeSlots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "blockworld",
			Subsystem: "stream",
			Name:      "pool_free_slots",
			Help:      "Свободные сущности в пуле чанков.",
		}),
		dispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockworld",
			Subsystem: "stream",
			Name:      "jobs_dispatched_total",
			Help:      "Отправлено фоновых задач сборки.",
		}),
		committed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockworld",
			Subsystem: "stream",
			Name:      "chunks_committed_total",
			Help:      "Чанков зафиксировано в основном потоке.",
		}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockworld",
			Subsystem: "stream",
			Name:      "chunks_evicted_total",
			Help:      "Чанков выгружено обратно в пул.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockworld",
			Subsystem: "stream",
			Name:      "jobs_failed_total",
			Help:      "Фоновых задач, завершившихся ошибкой.",
		}),
		exhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockworld",
			Subsystem: "stream",
			Name:      "pool_exhausted_total",
			Help:      "Попыток получить сущность из исчерпанного пула.",
		}),
		buildTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "blockworld",
			Subsystem: "stream",
			Name:      "build_duration_seconds",
			Help:      "Время генерации и построения меша одного чанка.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}

	if reg != nil {
		reg.MustRegister(m.loaded, m.loading, m.freeSlots, m.dispatched, m.committed,
			m.evicted, m.failed, m.exhausted, m.buildTime)
	}
	return m
}
