// Package metrics exposes Prometheus metrics for gateway calls and HTTP
// requests.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"gtodo/internal/service"
)

var (
	GatewayCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gtodo_gateway_calls_total",
			Help: "Task store calls by operation and result",
		},
		[]string{"op", "result"},
	)
	GatewayLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gtodo_gateway_call_duration_seconds",
			Help:    "Task store call latency by operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gtodo_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	prometheus.MustRegister(GatewayCalls)
	prometheus.MustRegister(GatewayLatency)
	prometheus.MustRegister(HTTPRequests)
}

// Instrumented wraps a service.Service and records every call.
type Instrumented struct {
	next service.Service
}

// Instrument wraps next.
func Instrument(next service.Service) *Instrumented {
	return &Instrumented{next: next}
}

// Unwrap returns the wrapped service.
func (i *Instrumented) Unwrap() service.Service {
	return i.next
}

func observe(op string, start time.Time, err error) {
	GatewayLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	GatewayCalls.WithLabelValues(op, service.Classify(err)).Inc()
}

// CreateTask implements service.Service.
func (i *Instrumented) CreateTask(ctx context.Context, text string) (id string, err error) {
	defer func(start time.Time) { observe("create", start, err) }(time.Now())
	return i.next.CreateTask(ctx, text)
}

// ListTasks implements service.Service.
func (i *Instrumented) ListTasks(ctx context.Context) (tasks []service.Task, err error) {
	defer func(start time.Time) { observe("list", start, err) }(time.Now())
	return i.next.ListTasks(ctx)
}

// UpdateTask implements service.Service.
func (i *Instrumented) UpdateTask(ctx context.Context, id string, update service.TaskUpdate) (err error) {
	defer func(start time.Time) { observe("update", start, err) }(time.Now())
	return i.next.UpdateTask(ctx, id, update)
}

// DeleteTask implements service.Service.
func (i *Instrumented) DeleteTask(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { observe("delete", start, err) }(time.Now())
	return i.next.DeleteTask(ctx, id)
}

// Middleware counts HTTP requests by route template and status.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
