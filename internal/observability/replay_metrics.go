package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ReplayMetrics Prometheus-метрики записи и воспроизведения.
// Все методы безопасны для nil-получателя.
type ReplayMetrics struct {
	recorded        *prometheus.CounterVec
	replayed        *prometheus.CounterVec
	failures        *prometheus.CounterVec
	replaysStarted  prometheus.Counter
	replaysFinished *prometheus.CounterVec
	progress        prometheus.Gauge
	brawlers        prometheus.Gauge
	historyLen      prometheus.Gauge
	tickDuration    prometheus.Histogram
}

// NewReplayMetrics создаёт метрики и регистрирует их в reg.
// reg == nil → prometheus.DefaultRegisterer.
func NewReplayMetrics(reg prometheus.Registerer) *ReplayMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &ReplayMetrics{
		recorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brawl",
			Name:      "commands_recorded_total",
			Help:      "Команды, записанные в историю.",
		}, []string{"kind"}),
		replayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brawl",
			Name:      "commands_replayed_total",
			Help:      "Команды, выполненные при воспроизведении.",
		}, []string{"kind"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brawl",
			Name:      "command_failures_total",
			Help:      "Команды, завершившиеся ошибкой (например, цель не найдена).",
		}, []string{"kind", "phase"}),
		replaysStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brawl",
			Name:      "replays_started_total",
			Help:      "Запущенные воспроизведения.",
		}),
		replaysFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brawl",
			Name:      "replays_finished_total",
			Help:      "Завершённые воспроизведения по исходу.",
		}, []string{"outcome"}),
		progress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "brawl",
			Name:      "replay_progress_ratio",
			Help:      "Доля воспроизведённых команд.",
		}),
		brawlers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "brawl",
			Name:      "brawlers",
			Help:      "Бойцы на арене.",
		}),
		historyLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "brawl",
			Name:      "history_commands",
			Help:      "Длина журнала команд.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "brawl",
			Name:      "tick_duration_seconds",
			Help:      "Длительность обработки тика.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
	}

	reg.MustRegister(m.recorded, m.replayed, m.failures, m.replaysStarted,
		m.replaysFinished, m.progress, m.brawlers, m.historyLen, m.tickDuration)
	return m
}

// CommandDispatched учитывает выполненную команду
func (m *ReplayMetrics) CommandDispatched(kind string, replay bool, failed bool) {
	if m == nil {
		return
	}
	phase := "record"
	if replay {
		phase = "replay"
		m.replayed.WithLabelValues(kind).Inc()
	} else {
		m.recorded.WithLabelValues(kind).Inc()
	}
	if failed {
		m.failures.WithLabelValues(kind, phase).Inc()
	}
}

// ReplayStarted учитывает старт воспроизведения
func (m *ReplayMetrics) ReplayStarted() {
	if m == nil {
		return
	}
	m.replaysStarted.Inc()
	m.progress.Set(0)
}

// ReplayFinished учитывает конец воспроизведения: "completed" или "stopped"
func (m *ReplayMetrics) ReplayFinished(outcome string) {
	if m == nil {
		return
	}
	m.replaysFinished.WithLabelValues(outcome).Inc()
}

// Observe обновляет gauge-метрики после тика
func (m *ReplayMetrics) Observe(progress float64, brawlers, historyLen int, tickSeconds float64) {
	if m == nil {
		return
	}
	m.progress.Set(progress)
	m.brawlers.Set(float64(brawlers))
	m.historyLen.Set(float64(historyLen))
	m.tickDuration.Observe(tickSeconds)
}
