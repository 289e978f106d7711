package model

import "time"

// EpisodeKind classifies what kind of happening an episode records.
type EpisodeKind string

const (
	EpisodeDecision   EpisodeKind = "decision"
	EpisodeError      EpisodeKind = "error"
	EpisodeResolution EpisodeKind = "resolution"
	EpisodeCodeChange EpisodeKind = "code_change"
)

// Episode records a discrete happening attributed to exactly one AgentType
// and optionally one Project. Episodes are append-only; the only permitted
// mutation is attaching a resolution outcome.
type Episode struct {
	ID          string      `json:"id"`
	AgentTypeID string      `json:"agent_type_id"`
	ProjectID   string      `json:"project_id,omitempty"`
	Kind        EpisodeKind `json:"kind"`
	Outcome     string      `json:"outcome,omitempty"` // success | failure
	Rationale   string      `json:"rationale,omitempty"`
	Resolution  string      `json:"resolution,omitempty"`
	OccurredAt  time.Time   `json:"occurred_at"`
}
