package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// PersistedState is the wire form of an Entry. LastExecutedAt is a
// RFC3339Nano string, empty for entries that never ran.
type PersistedState struct {
	State          Lifecycle `json:"state"`
	LastExecutedAt string    `json:"lastExecutedAt,omitempty"`
}

// Document is the full persisted snapshot: one map of lifecycle states and
// one map of last results, both keyed by fragment id.
type Document struct {
	States  map[string]PersistedState  `json:"states"`
	Results map[string]ExecutionResult `json:"results"`
}

// Sink is the durable persistence boundary. Save writes a complete
// snapshot; Load returns the last snapshot, with found=false when no
// snapshot exists yet (which is not an error).
type Sink interface {
	Save(doc Document) error
	Load() (doc Document, found bool, err error)
}

// FileSink persists the snapshot as a single JSON document on disk.
type FileSink struct {
	path string
}

// NewFileSink returns a sink writing to path. Parent directories are
// created on first save.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (f *FileSink) Save(doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state document: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write state document: %w", err)
	}
	return nil
}

func (f *FileSink) Load() (Document, bool, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, fmt.Errorf("read state document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, false, fmt.Errorf("decode state document: %w", err)
	}
	return doc, true, nil
}
