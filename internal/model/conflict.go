package model

import "time"

// ConflictClass is the mutually exclusive classification of a memory pair.
type ConflictClass string

const (
	ClassTemporal   ConflictClass = "temporal"
	ClassContextual ConflictClass = "contextual"
	ClassDirect     ConflictClass = "direct"
)

// ResolutionStrategy records which tier of the pipeline settled a conflict.
type ResolutionStrategy string

const (
	StrategyNone       ResolutionStrategy = "none"
	StrategyQualityGap ResolutionStrategy = "quality_gap"
	StrategyDebate     ResolutionStrategy = "debate"
	StrategyHuman      ResolutionStrategy = "human"
)

// ConflictStatus tracks a conflict through its lifecycle. Conflicts are
// archived after resolution, never deleted, to preserve the audit trail.
type ConflictStatus string

const (
	ConflictOpen      ConflictStatus = "open"
	ConflictEscalated ConflictStatus = "escalated"
	ConflictArchived  ConflictStatus = "archived"
)

// DebateEntry is one evaluator's vote in a debate transcript.
type DebateEntry struct {
	Evaluator string `json:"evaluator"`
	Vote      string `json:"vote"` // id of the memory voted for, or "" for abstain
	Argument  string `json:"argument,omitempty"`
}

// Conflict is the audit record of two memories recognized as contradictory.
type Conflict struct {
	ID             string             `json:"id"`
	MemoryA        string             `json:"memory_a"`
	MemoryB        string             `json:"memory_b"`
	Classification ConflictClass      `json:"classification"`
	Strategy       ResolutionStrategy `json:"strategy"`
	Status         ConflictStatus     `json:"status"`
	WinnerID       string             `json:"winner_id,omitempty"`
	ConsensusID    string             `json:"consensus_id,omitempty"`
	DebateID       string             `json:"debate_id,omitempty"`
	Transcript     []DebateEntry      `json:"transcript,omitempty"`
	Note           string             `json:"note,omitempty"`
	DetectedAt     time.Time          `json:"detected_at"`
	ResolvedAt     *time.Time         `json:"resolved_at,omitempty"`
}
