package settings

import (
	"math"
	"sync"
)

// Snapshot is an immutable copy of the runtime behavior flags. Every field
// always holds a value valid for its range.
type Snapshot struct {
	ShowReasoning    bool    `json:"showReasoning"`
	EnableThinking   bool    `json:"enableThinking"`
	LogRequests      bool    `json:"logRequests"`
	MaxTokens        int     `json:"maxTokens"`
	Temperature      float64 `json:"temperature"`
	StreamingEnabled bool    `json:"streamingEnabled"`
}

// Defaults returns the snapshot a fresh process starts with. There is no
// persistence; a restart always comes back to these values.
func Defaults() Snapshot {
	return Snapshot{
		ShowReasoning:    true,
		EnableThinking:   true,
		LogRequests:      false,
		MaxTokens:        4096,
		Temperature:      0.7,
		StreamingEnabled: true,
	}
}

// Store holds the single live settings record. Reads take a snapshot under a
// read lock; admin writes replace fields in place under the write lock.
// Last write wins, and an in-flight request may observe a change mid-stream.
type Store struct {
	mu      sync.RWMutex
	current Snapshot
}

func NewStore() *Store {
	return &Store{current: Defaults()}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Apply performs a partial update from decoded JSON. Each recognized field
// is validated independently; fields of the wrong type, out of range, or
// unknown are skipped without error. Returns the resulting snapshot.
func (s *Store) Apply(fields map[string]interface{}) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range fields {
		switch key {
		case "showReasoning":
			if v, ok := value.(bool); ok {
				s.current.ShowReasoning = v
			}
		case "enableThinking":
			if v, ok := value.(bool); ok {
				s.current.EnableThinking = v
			}
		case "logRequests":
			if v, ok := value.(bool); ok {
				s.current.LogRequests = v
			}
		case "maxTokens":
			// Only whole numbers in range keep the stored value a valid
			// positive int; anything else leaves the prior value untouched.
			if v, ok := value.(float64); ok && v == math.Trunc(v) && v >= 1 && v <= math.MaxInt32 {
				s.current.MaxTokens = int(v)
			}
		case "temperature":
			if v, ok := value.(float64); ok && v >= 0 && v <= 1 {
				s.current.Temperature = v
			}
		case "streamingEnabled":
			if v, ok := value.(bool); ok {
				s.current.StreamingEnabled = v
			}
		}
	}

	return s.current
}
