// Package model defines the core memory graph data types.
package model

import "time"

// Node labels used across the graph.
const (
	LabelAgentType     = "agent_type"
	LabelProject       = "project"
	LabelMemory        = "memory"
	LabelEpisode       = "episode"
	LabelKnowledgeFact = "knowledge_fact"
	LabelCodeElement   = "code_element"
	LabelConflict      = "conflict"
)

// Relationship kinds.
const (
	RelSharedBy     = "shared_by"     // Memory -> AgentType
	RelScopedTo     = "scoped_to"     // Memory -> Project
	RelPerformedBy  = "performed_by"  // Episode -> AgentType
	RelOccursWithin = "occurs_within" // Episode -> Project
	RelReferences   = "references"    // Memory/Episode -> CodeElement/KnowledgeFact
	RelSupersedes   = "supersedes"    // Memory -> Memory
	RelDerivedFrom  = "derived_from"  // Memory -> Memory
	RelInvolves     = "involves"      // Conflict -> Memory
	RelResolvesTo   = "resolves_to"   // Conflict -> Memory (consensus)
)

// MemoryType discriminates what a memory records.
type MemoryType string

const (
	TypeConversational MemoryType = "conversational"
	TypePattern        MemoryType = "pattern"
	TypeTask           MemoryType = "task"
	TypePreference     MemoryType = "preference"
)

// ValidMemoryTypes are the allowed memory type discriminators.
var ValidMemoryTypes = map[MemoryType]bool{
	TypeConversational: true,
	TypePattern:        true,
	TypeTask:           true,
	TypePreference:     true,
}

// MemoryStatus tracks whether a memory is the current claim for its subject.
type MemoryStatus string

const (
	StatusActive     MemoryStatus = "active"
	StatusSuperseded MemoryStatus = "superseded"
)

// Quality holds the sub-scores feeding the composite quality score.
// Validation is a running exponential moving average of use outcomes.
type Quality struct {
	Confidence      float64 `json:"confidence"`
	Validation      float64 `json:"validation"`
	ValidationCount int     `json:"validation_count"`
	Consensus       float64 `json:"consensus"`
	Specificity     float64 `json:"specificity"`
	Impact          float64 `json:"impact"`
	Score           float64 `json:"score"`
}

// Memory is the core unit of recorded knowledge.
//
// AgentTypeID and ProjectID mirror the shared_by / scoped_to edges for
// convenience; the edges in the graph store are authoritative and the
// isolation level is derived from them, never stored on its own.
type Memory struct {
	ID             string       `json:"id"`
	AgentTypeID    string       `json:"agent_type_id"`
	ProjectID      string       `json:"project_id,omitempty"`
	Type           MemoryType   `json:"memory_type"`
	Content        string       `json:"content"`
	PatternSig     string       `json:"pattern_sig,omitempty"`
	Status         MemoryStatus `json:"status"`
	ConflictFlag   bool         `json:"conflict_flag,omitempty"`
	Quality        Quality      `json:"quality"`
	AccessCount    int          `json:"access_count"`
	CreatedAt      time.Time    `json:"created_at"`
	LastAccessedAt *time.Time   `json:"last_accessed_at,omitempty"`
	InvalidatedAt  *time.Time   `json:"invalidated_at,omitempty"`
}

// Global reports whether the memory has no project scope.
func (m *Memory) Global() bool { return m.ProjectID == "" }

// AgentType is a singleton node per agent role (e.g. "architect").
type AgentType struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Project is an isolation boundary for scoped memories.
type Project struct {
	ID         string    `json:"id"`
	LastActive time.Time `json:"last_active"`
}

// KnowledgeFact is an externally-produced triple consumed read-only.
type KnowledgeFact struct {
	ID         string  `json:"id"`
	Subject    string  `json:"subject"`
	Predicate  string  `json:"predicate"`
	Object     string  `json:"object"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source,omitempty"`
}

// CodeElement is an externally-extracted code node consumed by reference.
type CodeElement struct {
	ID   string `json:"id"`
	Kind string `json:"kind"` // file, function, class
	Path string `json:"path,omitempty"`
}
