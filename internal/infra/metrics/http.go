package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(httpRequests, rateLimited)
}

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limited_total",
			Help: "Utterances rejected by the per-user rate limiter.",
		},
	)
)

func IncHTTPRequest(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}

func IncRateLimited() {
	rateLimited.Inc()
}
