package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// State is the journal of scaffolds applied per project directory
type State struct {
	mu       sync.RWMutex
	Projects map[string]*ProjectState `json:"projects"`
}

// ProjectState holds the scaffolds recorded for one project
type ProjectState struct {
	Records []Record `json:"records"`
}

// Record describes one committed scaffold
type Record struct {
	Operation   string    `json:"operation"`
	Site        string    `json:"site"`
	Template    string    `json:"template"`
	Destination string    `json:"destination"`
	Commit      string    `json:"commit"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewState creates a new empty state
func NewState() *State {
	return &State{
		Projects: make(map[string]*ProjectState),
	}
}

// LoadState reads the state file from the specified path
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	if state.Projects == nil {
		state.Projects = make(map[string]*ProjectState)
	}

	return &state, nil
}

// Save writes the state to the specified path
func (s *State) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// AddRecord appends a record for project
func (s *State) AddRecord(project string, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ps, ok := s.Projects[project]
	if !ok {
		ps = &ProjectState{}
		s.Projects[project] = ps
	}
	ps.Records = append(ps.Records, rec)
}

// Records returns a copy of the records for project, oldest first
func (s *State) Records(project string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, ok := s.Projects[project]
	if !ok {
		return nil
	}
	out := make([]Record, len(ps.Records))
	copy(out, ps.Records)
	return out
}

// Journal appends records to a state file on disk
type Journal struct {
	path string
}

// NewJournal creates a journal backed by the state file at path
func NewJournal(path string) *Journal {
	return &Journal{path: path}
}

// Append loads the state, adds rec for project and saves it back
func (j *Journal) Append(project string, rec Record) error {
	state, err := LoadState(j.path)
	if err != nil {
		return err
	}
	state.AddRecord(project, rec)
	return state.Save(j.path)
}

// Records returns the records stored for project
func (j *Journal) Records(project string) ([]Record, error) {
	state, err := LoadState(j.path)
	if err != nil {
		return nil, err
	}
	return state.Records(project), nil
}
