// Package store provides storage for evaluation history: an in-memory store
// and a SQLite-backed store behind a common Backend interface.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EvaluationState represents the outcome of an evaluation.
type EvaluationState string

const (
	EvaluationSucceeded EvaluationState = "SUCCEEDED"
	EvaluationFailed    EvaluationState = "FAILED"
)

// ErrNotFound is returned when an evaluation ID is unknown.
var ErrNotFound = errors.New("evaluation not found")

// Evaluation is one recorded run of the pipeline.
type Evaluation struct {
	ID         string           `json:"id"`
	Expression string           `json:"expression"`
	State      EvaluationState  `json:"state"`
	Postfix    string           `json:"postfix,omitempty"`
	Result     string           `json:"result,omitempty"`
	Value      float64          `json:"-"`
	Error      *EvaluationError `json:"error,omitempty"`
	Source     string           `json:"source,omitempty"` // shell, http, grpc, ui
	CreateTime time.Time        `json:"createTime"`
}

// EvaluationError describes why an expression was rejected.
type EvaluationError struct {
	Message string   `json:"message"`
	Tags    []string `json:"tags"`
}

// Backend is implemented by every history store.
type Backend interface {
	Record(ev *Evaluation) (*Evaluation, error)
	Get(id string) (*Evaluation, error)
	List(limit int) ([]*Evaluation, error)
	Prune(before time.Time) (int, error)
	Close() error
}

// prepare fills in the ID and timestamp of a new record.
func prepare(ev *Evaluation) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreateTime.IsZero() {
		ev.CreateTime = time.Now()
	}
}

// Memory is a thread-safe in-memory Backend.
type Memory struct {
	mu          sync.RWMutex
	evaluations map[string]*Evaluation
	seq         map[string]uint64 // insertion order, breaks CreateTime ties
	next        uint64
}

// New creates a new empty in-memory store.
func New() *Memory {
	return &Memory{
		evaluations: make(map[string]*Evaluation),
		seq:         make(map[string]uint64),
	}
}

// Record stores a new evaluation.
func (s *Memory) Record(ev *Evaluation) (*Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepare(ev)
	if _, exists := s.evaluations[ev.ID]; exists {
		return nil, fmt.Errorf("evaluation '%s' already exists", ev.ID)
	}
	s.evaluations[ev.ID] = ev
	s.next++
	s.seq[ev.ID] = s.next
	return ev, nil
}

// Get retrieves an evaluation by ID.
func (s *Memory) Get(id string) (*Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.evaluations[id]
	if !ok {
		return nil, fmt.Errorf("evaluation '%s': %w", id, ErrNotFound)
	}
	return ev, nil
}

// List returns evaluations newest first. limit <= 0 returns all of them.
func (s *Memory) List(limit int) ([]*Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Evaluation, 0, len(s.evaluations))
	for _, ev := range s.evaluations {
		result = append(result, ev)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.CreateTime.Equal(b.CreateTime) {
			return a.CreateTime.After(b.CreateTime)
		}
		return s.seq[a.ID] > s.seq[b.ID]
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Prune removes evaluations created before the given time.
func (s *Memory) Prune(before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, ev := range s.evaluations {
		if ev.CreateTime.Before(before) {
			delete(s.evaluations, id)
			delete(s.seq, id)
			removed++
		}
	}
	return removed, nil
}

// Close is a no-op for the in-memory store.
func (s *Memory) Close() error {
	return nil
}
