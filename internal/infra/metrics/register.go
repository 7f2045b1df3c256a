package metrics

import (
	"runtime"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once       sync.Once
	collectors []prometheus.Collector

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "conversation_agent_build_info",
			Help: "Always 1; labels carry version, commit and Go runtime.",
		},
		[]string{"version", "commit", "goversion"},
	)
)

func init() {
	register(buildInfo)
}

// register is called by init() in each metrics file to enqueue collectors.
func register(cs ...prometheus.Collector) {
	collectors = append(collectors, cs...)
}

// MustRegister hands every enqueued collector to the default registry, once.
func MustRegister() {
	once.Do(func() {
		if len(collectors) > 0 {
			prometheus.MustRegister(collectors...)
		}
	})
}

func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit, runtime.Version()).Set(1)
}

// norm keeps label values stable across casing and stray whitespace.
func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
