// Package template turns checked-in configuration templates into concrete
// files by copying them and substituting the site name placeholder.
package template

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// SiteNamePlaceholder is the marker replaced with the site name.
const SiteNamePlaceholder = "%SITE_NAME%"

var (
	// ErrCopy reports that the template could not be copied to its destination.
	ErrCopy = errors.New("copy failed")
	// ErrSubstitute reports that the placeholder could not be rewritten.
	ErrSubstitute = errors.New("substitution failed")
)

// Spec names a template and where it is materialized.
type Spec struct {
	Template    string
	Destination string
	// Placeholder defaults to SiteNamePlaceholder when empty.
	Placeholder string
}

// Result describes what Materialize did.
type Result struct {
	// Materialized is false when the template did not exist.
	Materialized bool
	Replacements int
}

// Materializer copies templates within a single filesystem root.
type Materializer struct {
	fs afero.Fs
}

// NewMaterializer creates a materializer over fs.
func NewMaterializer(fs afero.Fs) *Materializer {
	return &Materializer{fs: fs}
}

// NewProjectMaterializer creates a materializer rooted at a project directory
// on the real filesystem, so relative template paths resolve against it.
func NewProjectMaterializer(dir string) *Materializer {
	return NewMaterializer(afero.NewBasePathFs(afero.NewOsFs(), dir))
}

// Fs returns the underlying filesystem.
func (m *Materializer) Fs() afero.Fs {
	return m.fs
}

// Exists reports whether path exists as a regular file.
func (m *Materializer) Exists(path string) bool {
	info, err := m.fs.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// Remove deletes path.
func (m *Materializer) Remove(path string) error {
	if err := m.fs.Remove(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// Materialize copies spec.Template to spec.Destination and replaces every
// placeholder occurrence with value. A missing template is a no-op.
func (m *Materializer) Materialize(spec Spec, value string) (*Result, error) {
	placeholder := spec.Placeholder
	if placeholder == "" {
		placeholder = SiteNamePlaceholder
	}

	info, err := m.fs.Stat(spec.Template)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Result{}, nil
		}
		return nil, fmt.Errorf("%w: unable to stat %s: %w", ErrCopy, spec.Template, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrCopy, spec.Template)
	}

	if err := m.copy(spec.Template, spec.Destination, info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("%w: unable to copy %s to %s: %w", ErrCopy, spec.Template, spec.Destination, err)
	}

	n, err := m.substitute(spec.Destination, placeholder, value, info.Mode().Perm())
	if err != nil {
		return nil, fmt.Errorf("%w: unable to generate config for %s: %w", ErrSubstitute, spec.Destination, err)
	}

	return &Result{Materialized: true, Replacements: n}, nil
}

func (m *Materializer) copy(src, dst string, perm fs.FileMode) error {
	data, err := afero.ReadFile(m.fs, src)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(dst); dir != "." {
		if err := m.fs.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return afero.WriteFile(m.fs, dst, data, perm)
}

func (m *Materializer) substitute(path, from, to string, perm fs.FileMode) (int, error) {
	data, err := afero.ReadFile(m.fs, path)
	if err != nil {
		return 0, err
	}

	content := string(data)
	n := strings.Count(content, from)
	if n == 0 {
		return 0, nil
	}

	if err := afero.WriteFile(m.fs, path, []byte(strings.ReplaceAll(content, from, to)), perm); err != nil {
		return 0, err
	}
	return n, nil
}
