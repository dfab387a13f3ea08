package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "relvanta"

// Login outcomes.
const (
	LoginSucceeded        = "success"
	LoginMalformedHeader  = "malformed_header"
	LoginInvalidToken     = "invalid_token"
	LoginInvalidClaims    = "invalid_claims"
	LoginDependencyFailed = "error"
)

// Session lookup results.
const (
	SessionLive     = "live"
	SessionNone     = "none"
	SessionUnknown  = "unknown"
	SessionExpired  = "expired"
	SessionOrphaned = "orphaned"
)

// Metrics holds the API's Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	logins          *prometheus.CounterVec
	sessionLookups  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	gatherer        prometheus.Gatherer
}

// New registers the collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Session issuance attempts by outcome",
		}, []string{"outcome"}),

		sessionLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "session_lookups_total",
			Help:      "Session credential resolutions by result",
		}, []string{"result"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),

		gatherer: reg,
	}
}

func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSessionLookup(result string) {
	if m == nil {
		return
	}
	m.sessionLookups.WithLabelValues(result).Inc()
}

// Middleware records request latency labelled by the matched route pattern.
// Handler errors are rendered through the app's ErrorHandler here so the
// status label matches the response the client receives.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}
		start := time.Now()
		if err := c.Next(); err != nil {
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		// Request strings alias fasthttp buffers unless the app is Immutable.
		method := utils.CopyString(c.Method())
		route := utils.CopyString(c.Route().Path)
		m.requestDuration.
			WithLabelValues(method, route, strconv.Itoa(c.Response().StatusCode())).
			Observe(time.Since(start).Seconds())
		return nil
	}
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}
