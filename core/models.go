package core

import (
	"encoding/hex"
	"io"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ProcessorConfig selects which source columns become document content and
// which become metadata.
type ProcessorConfig struct {
	ContentColumns  []string // Joined with "\n" in this order to form content
	MetadataColumns []string // Copied into metadata with typed values
	SourceColumn    string   // Reserved; not read by any processor
}

// ChunkParameters bounds the size of chunks produced from a document.
type ChunkParameters struct {
	ChunkSize int // Maximum chunk length in characters
	Overlap   int // Characters shared between consecutive chunks
}

// RunState is a stage of an ingestion run.
type RunState int

const (
	RunStateUninitialized RunState = iota
	RunStateChecked
	RunStateCreated
	RunStateSkippedCreate
	RunStateLoaded
	RunStateProcessed
	RunStateChunked
	RunStateStored
	RunStateDone
	RunStateFailed
)

var runStateNames = [...]string{
	"uninitialized",
	"checked",
	"created",
	"skipped-create",
	"loaded",
	"processed",
	"chunked",
	"stored",
	"done",
	"failed",
}

func (s RunState) String() string {
	if s < 0 || int(s) >= len(runStateNames) {
		return "unknown"
	}
	return runStateNames[s]
}

// Terminal reports whether no further transitions are possible.
func (s RunState) Terminal() bool {
	return s == RunStateDone || s == RunStateFailed
}

// RunMode distinguishes fresh loads from destructive reloads.
type RunMode string

const (
	RunModeFresh    RunMode = "fresh"
	RunModeRecreate RunMode = "recreate"
)

// Run records one execution of the ingestion pipeline against one index.
type Run struct {
	Id            string    `json:"id"`
	Index         string    `json:"index"`
	Source        string    `json:"source"`
	Mode          RunMode   `json:"mode"`
	Fingerprint   string    `json:"fingerprint,omitempty"` // blake2b-64 of the raw source
	State         RunState  `json:"state"`
	Skipped       bool      `json:"skipped"`
	Documents     int       `json:"documents"`      // Documents produced by the processor
	Chunks        int       `json:"chunks"`         // Documents handed to the store
	BatchesStored int       `json:"batches_stored"` // Batches committed before completion or failure
	DocsStored    int       `json:"docs_stored"`
	Error         string    `json:"error,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// Duration returns how long the run took, or zero if it has not finished.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Fingerprint returns a 64-bit BLAKE2b digest of the content read from r,
// hex encoded. Identical sources produce identical fingerprints.
func Fingerprint(r io.Reader) (string, error) {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ID identifies a document held by the local store.
type ID uint64

// StoredDocument is a document with its embedding as kept by the local store.
type StoredDocument struct {
	Id         ID             `json:"id"`
	Index      string         `json:"index"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Vector     []float32      `json:"vector"`
	InsertedAt time.Time      `json:"inserted_at"`
}

// SearchResult pairs a stored document with its similarity to a query.
type SearchResult struct {
	Document *StoredDocument
	Score    float32
}

// IndexInfo describes a local index.
type IndexInfo struct {
	Name       string    `json:"name"`
	Dimensions int       `json:"dimensions"`
	CreatedAt  time.Time `json:"created_at"`
}
