// Package observability groups tracing and metrics setup shared by the
// application. This file registers domain-level Prometheus counters; HTTP
// traffic metrics live in the middleware package.
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// CommentsCreated counts successful comment creations (all depths).
	CommentsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roadmap_comments_created_total",
		Help: "Total number of comments created.",
	})

	// CommentsDeleted counts successful comment soft-deletions.
	CommentsDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roadmap_comments_deleted_total",
		Help: "Total number of comments soft-deleted.",
	})

	// UpvoteToggles counts vote toggles by resulting direction ("up"/"down").
	UpvoteToggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roadmap_upvote_toggles_total",
			Help: "Total number of upvote toggles by resulting state.",
		},
		[]string{"direction"},
	)
)

func init() {
	prometheus.MustRegister(CommentsCreated, CommentsDeleted, UpvoteToggles)
}
