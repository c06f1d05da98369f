package vcs

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrCommit reports that staging or committing failed.
	ErrCommit = errors.New("commit failed")
	// ErrCleanup reports that a consumed template could not be removed after
	// a successful commit.
	ErrCleanup = errors.New("cleanup failed")
)

// Repository is the subset of git the recorder needs.
type Repository interface {
	Add(ctx context.Context, paths ...string) error
	Commit(ctx context.Context, message string) error
	Head(ctx context.Context) (string, error)
}

// Remover deletes files from the project tree.
type Remover interface {
	Remove(path string) error
}

// Change is a set of files to commit and the templates they consumed.
type Change struct {
	Files    []string
	Message  string
	Consumed []string
}

// Recorder commits materialized files and then removes their templates.
type Recorder struct {
	repo    Repository
	remover Remover
}

// NewRecorder creates a recorder.
func NewRecorder(repo Repository, remover Remover) *Recorder {
	return &Recorder{repo: repo, remover: remover}
}

// Record stages and commits change.Files and returns the new commit SHA.
// Consumed templates are removed only once the commit has succeeded.
func (r *Recorder) Record(ctx context.Context, change Change) (string, error) {
	if len(change.Files) == 0 {
		return "", fmt.Errorf("%w: nothing to commit", ErrCommit)
	}

	if err := r.repo.Add(ctx, change.Files...); err != nil {
		return "", fmt.Errorf("%w: %w", ErrCommit, err)
	}
	if err := r.repo.Commit(ctx, change.Message); err != nil {
		return "", fmt.Errorf("%w: %w", ErrCommit, err)
	}

	sha, err := r.repo.Head(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read commit: %w", ErrCommit, err)
	}

	for _, path := range change.Consumed {
		if err := r.remover.Remove(path); err != nil {
			return sha, fmt.Errorf("%w: %w", ErrCleanup, err)
		}
	}

	return sha, nil
}
