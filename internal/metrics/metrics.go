package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "imagebank"

// 入库结果标签
const (
	IngestHit     = "hit"
	IngestMiss    = "miss"
	IngestHealed  = "healed"
	IngestInvalid = "invalid"
)

// Metrics 服务指标集合，nil 接收者上的调用均为空操作
type Metrics struct {
	ingestTotal      *prometheus.CounterVec
	ingestBytes      prometheus.Counter
	variantDuration  *prometheus.HistogramVec
	variantErrors    *prometheus.CounterVec
	fetchDuration    prometheus.Histogram
	fetchErrors      prometheus.Counter
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
}

// New 创建并注册指标，重复注册时复用已有采集器
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		ingestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "ingest_total",
			Help:      "Ingest calls by result.",
		}, []string{"result"}),
		ingestBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "written_bytes_total",
			Help:      "Bytes written to blob storage.",
		}),
		variantDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "variant",
			Name:      "duration_seconds",
			Help:      "Latency of variant generation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		variantErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "variant",
			Name:      "errors_total",
			Help:      "Variant generation failures.",
		}, []string{"operation"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "duration_seconds",
			Help:      "Latency of remote image downloads.",
			Buckets:   prometheus.DefBuckets,
		}),
		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "errors_total",
			Help:      "Failed remote image downloads.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		requestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Requests currently being served.",
		}),
	}

	var err error
	if m.ingestTotal, err = register(reg, m.ingestTotal); err != nil {
		return nil, err
	}
	if m.ingestBytes, err = register(reg, m.ingestBytes); err != nil {
		return nil, err
	}
	if m.variantDuration, err = register(reg, m.variantDuration); err != nil {
		return nil, err
	}
	if m.variantErrors, err = register(reg, m.variantErrors); err != nil {
		return nil, err
	}
	if m.fetchDuration, err = register(reg, m.fetchDuration); err != nil {
		return nil, err
	}
	if m.fetchErrors, err = register(reg, m.fetchErrors); err != nil {
		return nil, err
	}
	if m.requestDuration, err = register(reg, m.requestDuration); err != nil {
		return nil, err
	}
	if m.requestsInFlight, err = register(reg, m.requestsInFlight); err != nil {
		return nil, err
	}
	return m, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register metric: %w", err)
	}
	return c, nil
}

// RecordIngest 记录一次入库结果
func (m *Metrics) RecordIngest(result string, written int64) {
	if m == nil {
		return
	}
	m.ingestTotal.WithLabelValues(result).Inc()
	if written > 0 {
		m.ingestBytes.Add(float64(written))
	}
}

// RecordVariant 记录一次变体生成
func (m *Metrics) RecordVariant(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.variantDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.variantErrors.WithLabelValues(operation).Inc()
	}
}

// RecordFetch 记录一次远程下载
func (m *Metrics) RecordFetch(duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.fetchDuration.Observe(duration.Seconds())
	if err != nil {
		m.fetchErrors.Inc()
	}
}

// RequestStarted 请求开始
func (m *Metrics) RequestStarted() {
	if m == nil {
		return
	}
	m.requestsInFlight.Inc()
}

// RequestFinished 请求结束
func (m *Metrics) RequestFinished(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsInFlight.Dec()
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}
