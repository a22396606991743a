package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/apphub-org/apphub/internal/common/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes
const (
	LoginSuccess = "success"
	LoginInvalid = "invalid"
	LoginDenied  = "denied"
	LoginError   = "error"
)

// Metrics is safe to use through a nil pointer, every method becomes a no-op.
type Metrics struct {
	registry    *prometheus.Registry
	namespace   string
	httpReqCnt  *prometheus.CounterVec
	httpDur     *prometheus.HistogramVec
	httpInfl    *prometheus.GaugeVec
	loginCnt    *prometheus.CounterVec
	authCnt     *prometheus.CounterVec
	rateLimited prometheus.Counter
	registerCnt prometheus.Counter
}

func New(cfg config.MetricsConfig) *Metrics {
	ns := cfg.Namespace
	buckets := cfg.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	r := prometheus.NewRegistry()
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	httpReqCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total"}, []string{"method", "route", "status"})
	httpDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "http_request_duration_seconds", Buckets: buckets}, []string{"method", "route", "status"})
	httpInfl := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: "http_requests_inflight"}, []string{"route"})
	r.MustRegister(httpReqCnt, httpDur, httpInfl)

	loginCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "auth_login_total"}, []string{"outcome"})
	authCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "auth_authenticated_total"}, []string{"via"})
	rateLimited := prometheus.NewCounter(prometheus.CounterOpts{Namespace: ns, Name: "auth_rate_limited_total"})
	registerCnt := prometheus.NewCounter(prometheus.CounterOpts{Namespace: ns, Name: "auth_registrations_total"})
	r.MustRegister(loginCnt, authCnt, rateLimited, registerCnt)

	return &Metrics{
		registry:    r,
		namespace:   ns,
		httpReqCnt:  httpReqCnt,
		httpDur:     httpDur,
		httpInfl:    httpInfl,
		loginCnt:    loginCnt,
		authCnt:     authCnt,
		rateLimited: rateLimited,
		registerCnt: registerCnt,
	}
}

// Login counts a login attempt by outcome
func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.loginCnt.WithLabelValues(outcome).Inc()
}

// Authenticated counts requests that resolved an account, labelled by the
// proof that was used (session or token).
func (m *Metrics) Authenticated(via string) {
	if m == nil {
		return
	}
	m.authCnt.WithLabelValues(via).Inc()
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func (m *Metrics) Registered() {
	if m == nil {
		return
	}
	m.registerCnt.Inc()
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpInfl.WithLabelValues(route).Inc()
		start := time.Now()
		c.Next()
		status := httpStatus(c.Writer.Status())
		m.httpReqCnt.WithLabelValues(c.Request.Method, route, status).Inc()
		m.httpDur.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpInfl.WithLabelValues(route).Dec()
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func httpStatus(code int) string { return strconv.Itoa(code) }
