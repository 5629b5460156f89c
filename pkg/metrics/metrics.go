package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics 应用级 Prometheus 指标
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	AuthFailures    *prometheus.CounterVec
	Registrations   *prometheus.CounterVec
}

// New 创建并注册指标，每个实例使用独立 Registry，便于测试隔离
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campus",
			Name:      "http_requests_total",
			Help:      "HTTP 请求总数",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "campus",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP 请求耗时",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		AuthFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campus",
			Name:      "auth_failures_total",
			Help:      "认证失败次数（按原因）",
		}, []string{"reason"}),
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campus",
			Name:      "event_registrations_total",
			Help:      "活动报名请求结果（added / already_registered）",
		}, []string{"result"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDuration,
		m.AuthFailures,
		m.Registrations,
	)
	return m
}

// AuthFailed 记录一次认证失败；m 为 nil 时忽略
func (m *Metrics) AuthFailed(reason string) {
	if m == nil {
		return
	}
	m.AuthFailures.WithLabelValues(reason).Inc()
}

// Registered 记录一次报名结果；m 为 nil 时忽略
func (m *Metrics) Registered(added bool) {
	if m == nil {
		return
	}
	result := "already_registered"
	if added {
		result = "added"
	}
	m.Registrations.WithLabelValues(result).Inc()
}
