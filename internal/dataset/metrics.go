package dataset

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics счетчики генератора. Нулевой указатель допустим: все методы
// тогда ничего не делают.
type Metrics struct {
	generated     prometheus.Counter
	compileMisses prometheus.Counter
	degenerate    prometheus.Counter
	exhausted     *prometheus.CounterVec
	sinkErrors    *prometheus.CounterVec
	duration      prometheus.Histogram
}

// NewMetrics создает метрики и регистрирует их в reg (nil: без регистрации)
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		generated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "extrudegen",
			Name:      "samples_generated_total",
			Help:      "Число сгенерированных примеров.",
		}),
		compileMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "extrudegen",
			Name:      "compile_misses_total",
			Help:      "Программы, отброшенные из-за промаха при поиске точки соединения.",
		}),
		degenerate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "extrudegen",
			Name:      "degenerate_retries_total",
			Help:      "Повторные выборки из-за вырожденной геометрии: нормали, многоугольника или отказа ядра.",
		}),
		exhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "extrudegen",
			Name:      "generation_exhausted_total",
			Help:      "Примеры, которые не удалось построить за отведенное число попыток.",
		}, []string{"reason"}),
		sinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "extrudegen",
			Name:      "sink_errors_total",
			Help:      "Ошибки записи примеров в приемники.",
		}, []string{"sink"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "extrudegen",
			Name:      "sample_duration_seconds",
			Help:      "Время построения одного примера.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
	}

	if reg != nil {
		reg.MustRegister(m.generated, m.compileMisses, m.degenerate, m.exhausted, m.sinkErrors, m.duration)
	}
	return m
}

func (m *Metrics) observeSample(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.generated.Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) compileMiss() {
	if m == nil {
		return
	}
	m.compileMisses.Inc()
}

func (m *Metrics) degenerateRetries(n uint64) {
	if m == nil || n == 0 {
		return
	}
	m.degenerate.Add(float64(n))
}

func (m *Metrics) exhaustedBy(reason string) {
	if m == nil {
		return
	}
	m.exhausted.WithLabelValues(reason).Inc()
}

func (m *Metrics) sinkError(sink string) {
	if m == nil {
		return
	}
	m.sinkErrors.WithLabelValues(sink).Inc()
}
