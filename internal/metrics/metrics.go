// Package metrics exposes Prometheus counters for the memory core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MemoriesCreated counts successful memory writes.
	MemoriesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentgraph_memories_created_total",
		Help: "Number of memories persisted.",
	})

	// RetrievalsServed counts retrieval queries answered.
	RetrievalsServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentgraph_retrievals_total",
		Help: "Number of retrieval queries served.",
	})

	// ConflictsDetected counts detected conflicts by classification.
	ConflictsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentgraph_conflicts_detected_total",
		Help: "Number of conflicts detected, by classification.",
	}, []string{"classification"})

	// Resolutions counts conflict resolutions by pipeline tier. The healthy
	// distribution skews heavily toward quality_gap, with debate a minority
	// and human escalation rare.
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentgraph_resolutions_total",
		Help: "Number of conflict resolutions, by strategy tier.",
	}, []string{"strategy"})

	// Validations counts validation feedback events by outcome.
	Validations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentgraph_validations_total",
		Help: "Number of validation feedback events, by outcome.",
	}, []string{"outcome"})
)
