package models

import "time"

// Chunk is a scored span of handbook text, the atomic unit stored in
// the vector index.
type Chunk struct {
	Content         string
	ImportanceScore int
	Index           int
	HasDomainTerms  bool
}

// SearchResult pairs a retrieved chunk with its similarity score.
type SearchResult struct {
	Content    string
	Similarity float32
	Metadata   map[string]string
}

// Turn holds the remembered exchange for one conversation slot.
type Turn struct {
	LastQuestion string
	LastAnswer   string
}

// QAExchange is the per-request record handed to the session sink.
type QAExchange struct {
	SessionID string
	Question  string
	Answer    string
	Sources   []string
	Duration  time.Duration
	Fallback  bool
}

// QueryMetrics describes how a single query was resolved.
type QueryMetrics struct {
	SessionID    string
	Duration     time.Duration
	AnswerLength int
	SourceCount  int
	Fallback     bool
}
