package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	Duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "messenger_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	EntitiesCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_entities_created_total",
		Help: "Users, chats, messages and attachments created",
	}, []string{"entity"})

	once sync.Once
)

func Init() {
	once.Do(func() {
		prometheus.MustRegister(Requests, Duration, EntitiesCreated)
	})
}

func EntityCreated(entity string) {
	EntitiesCreated.WithLabelValues(entity).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records every request under its chi route pattern so ids in
// the path do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		Requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		Duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
