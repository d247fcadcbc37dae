// Package metrics exposes engagement counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "blog_engagement"

// Metrics holds the engine's collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	PostsCreated    prometheus.Counter
	CommentsCreated prometheus.Counter
	CommentsDeleted prometheus.Counter
	LikeToggles     *prometheus.CounterVec // result: liked, unliked
	Views           *prometheus.CounterVec // outcome: counted, skipped
	Searches        *prometheus.CounterVec // sort
	SlugRetries     prometheus.Counter
}

// New registers a fresh collector set. withRuntime adds Go runtime and
// process collectors, which only make sense once per process.
func New(withRuntime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PostsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "posts_created_total", Help: "Posts created.",
		}),
		CommentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "comments_created_total", Help: "Comments created.",
		}),
		CommentsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "comments_deleted_total", Help: "Comments removed, replies included.",
		}),
		LikeToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "like_toggles_total", Help: "Like toggles by resulting state.",
		}, []string{"result"}),
		Views: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "views_total", Help: "View records by outcome.",
		}, []string{"outcome"}),
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "searches_total", Help: "Searches by sort mode.",
		}, []string{"sort"}),
		SlugRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "slug_retries_total", Help: "Post writes retried after a slug collision.",
		}),
	}

	m.registry.MustRegister(
		m.PostsCreated, m.CommentsCreated, m.CommentsDeleted,
		m.LikeToggles, m.Views, m.Searches, m.SlugRetries,
	)
	if withRuntime {
		m.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests and for registering extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
