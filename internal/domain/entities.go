package domain

import "time"

// Document is an uploaded source file, held whole in memory until it has been indexed.
type Document struct {
	ID      string
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	Data    []byte
}

// Segment is a unit of extracted text together with the page it came from.
type Segment struct {
	Page int
	Text string
}

// Chunk is a bounded window of segment text prepared for embedding.
// Start and End are rune offsets into the originating segment.
type Chunk struct {
	ID    string
	DocID string
	Index int
	Page  int
	Start int
	End   int
	Text  string
}

// ScoredChunk is a retrieval candidate. Vector carries the chunk embedding
// so that diversity-aware selection can compare candidates with each other.
type ScoredChunk struct {
	Chunk  Chunk
	Score  float64
	Vector []float32
}

// IndexInfo is stored alongside a persisted index and checked on load.
type IndexInfo struct {
	SchemaVersion  int       `json:"schema_version"`
	EmbeddingModel string    `json:"embedding_model"`
	Dimension      int       `json:"dimension"`
	ChunkCount     int       `json:"chunk_count"`
	Source         string    `json:"source"`
	CreatedAt      time.Time `json:"created_at"`
}

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation.
type Turn struct {
	Role    Role
	Content string
}

// State is the lifecycle state of a pipeline workspace.
type State string

const (
	StateEmpty    State = "EMPTY"
	StateIndexing State = "INDEXING"
	StateReady    State = "READY"
)

// PackedContext is the retrieved text that fits the model's context window.
type PackedContext struct {
	Chunks     []ScoredChunk
	Text       string
	UsedTokens int
	Budget     int
	Dropped    int  // retrieved chunks left out for lack of room
	Truncated  bool // the first chunk was shortened to fit
}

// Answer is a generated reply together with the context it was drawn from.
type Answer struct {
	Text    string
	Sources []ScoredChunk
}
