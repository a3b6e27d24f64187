// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集 HTTP、审核与上传指标.
//
// Example:
//
//	import "github.com/yeisme/papervault/pkg/metrics"
//
//	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
//		log.Fatal(err)
//	}
//	metrics.RegisterRoutes(cfg.Metrics, engine)
//
//	// 记录指标
//	metrics.RequestCounter.WithLabelValues("GET", "/api/files", "200").Inc()
//	metrics.ObserveModeration("approve", nil)
//
// 暴露端点同时汇总默认注册表，GORM 与 Watermill 的指标注册在默认注册表中.
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/papervault/pkg/configs"
)

const namespace = "papervault"

// 结果标签取值.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ActiveConnections 进行中的请求数.
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of in-flight requests",
		},
	)

	// ModerationTotal 审核操作计数，action 为 approve/reject/move.
	ModerationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moderation_total",
			Help:      "Moderation actions by outcome",
		},
		[]string{"action", "result"},
	)

	// UploadFilesTotal 上传文件计数.
	UploadFilesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_files_total",
			Help:      "Uploaded files by outcome",
		},
		[]string{"result"},
	)

	// SweepOrphansTotal 巡检发现与清理的孤儿对象.
	SweepOrphansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_orphans_total",
			Help:      "Orphan objects found by the storage sweep",
		},
		[]string{"result"},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
	initOnce sync.Once
)

// InitMetrics 初始化Metrics，重复调用只生效一次.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	var err error

	initOnce.Do(func() {
		reg := prometheus.WrapRegistererWith(config.Labels, registry)

		for _, c := range []prometheus.Collector{
			RequestCounter, RequestDuration, ActiveConnections,
			ModerationTotal, UploadFilesTotal, SweepOrphansTotal,
		} {
			if err = reg.Register(c); err != nil {
				return
			}
		}

		// 默认注册表自带运行时收集器
		if !config.RuntimeMetrics {
			prometheus.Unregister(collectors.NewGoCollector())
			prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		}
	})

	return err
}

// Handler 返回汇总自定义与默认注册表的 HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(
		prometheus.Gatherers{registry, prometheus.DefaultGatherer},
		promhttp.HandlerOpts{ErrorHandling: promhttp.ContinueOnError},
	)
}

// RegisterRoutes 在 engine 上挂载指标与 pprof 端点.
func RegisterRoutes(config configs.MetricsConfig, engine *gin.Engine) {
	if !config.Enabled {
		return
	}

	engine.GET(config.GetPath(), gin.WrapH(Handler()))

	// 如果启用pprof，注册pprof端点
	if config.Pprof {
		engine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}

// ObserveModeration 记录一次审核操作.
func ObserveModeration(action string, err error) {
	ModerationTotal.WithLabelValues(action, resultOf(err)).Inc()
}

// ObserveUpload 记录单个文件的上传结果.
func ObserveUpload(result string) {
	UploadFilesTotal.WithLabelValues(result).Inc()
}

// ObserveSweep 记录巡检结果，removed 为实际删除数量.
func ObserveSweep(found, removed int) {
	SweepOrphansTotal.WithLabelValues("found").Add(float64(found))
	SweepOrphansTotal.WithLabelValues("removed").Add(float64(removed))
}

func resultOf(err error) string {
	if err != nil {
		return ResultError
	}

	return ResultSuccess
}
