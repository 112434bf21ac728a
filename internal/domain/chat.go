package domain

import "time"

// Turn is one question/answer exchange in a session.
type Turn struct {
	SessionID string
	Question  string
	Answer    string
	Model     string
	CreatedAt time.Time
}

// Candidate is an ephemeral retrieval hit: a stored chunk plus its
// relevance score. Produced per query, never persisted.
type Candidate struct {
	ChunkID string
	Content string // contextualized text as stored in the index
	Source  string // original filename
	Score   float64
}

// Answer is the synthesized response to a chat question.
type Answer struct {
	Text    string
	Sources []string // filenames of the chunks actually used, deduplicated
}
