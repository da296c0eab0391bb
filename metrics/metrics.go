package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics содержит метрики Prometheus сервиса аналитики
type Metrics struct {
	registry *prometheus.Registry

	// Загрузка файлов
	FileLoads     *prometheus.CounterVec
	ParseWarnings *prometheus.CounterVec

	// Пересчет дашборда
	Recomputes        *prometheus.CounterVec
	RecomputeDuration prometheus.Histogram

	// Сессии и живые подключения
	ActiveSessions       prometheus.Gauge
	WebSocketConnections prometheus.Gauge

	// HTTP
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics создает метрики в собственном реестре с префиксом serviceName
func NewMetrics(serviceName string) *Metrics {
	prefix := strings.ReplaceAll(serviceName, "-", "_") + "_"

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FileLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "file_loads_total",
			Help: "Загруженные файлы по типу таблицы и результату",
		}, []string{"kind", "status"}),
		ParseWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "parse_warnings_total",
			Help: "Пропущенные при разборе строки и ячейки",
		}, []string{"kind", "skipped"}),
		Recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "dashboard_recomputes_total",
			Help: "Пересчеты дашборда по источнику запроса",
		}, []string{"trigger", "status"}),
		RecomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    prefix + "dashboard_recompute_duration_seconds",
			Help:    "Длительность пересчета дашборда",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "active_sessions",
			Help: "Количество активных сессий",
		}),
		WebSocketConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "websocket_connections",
			Help: "Количество открытых WebSocket-подключений",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "http_requests_total",
			Help: "Количество HTTP-запросов",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		m.FileLoads,
		m.ParseWarnings,
		m.Recomputes,
		m.RecomputeDuration,
		m.ActiveSessions,
		m.WebSocketConnections,
		m.HTTPRequests,
		m.HTTPRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler возвращает HTTP-обработчик для сбора метрик
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRecompute учитывает пересчет дашборда
func (m *Metrics) ObserveRecompute(trigger string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Recomputes.WithLabelValues(trigger, status).Inc()
	m.RecomputeDuration.Observe(duration.Seconds())
}

// Middleware собирает метрики HTTP-запросов по шаблону маршрута
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := "unknown"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack передает соединение обработчику WebSocket
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("ResponseWriter не поддерживает Hijack")
	}
	r.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}
