// Package changespec provides persistence for sase change records.
//
// A change record describes one logical unit of work (a branch plus
// metadata) and lives at ~/.sase/projects/<project>/changes/<name>.cs in
// the same line-oriented "KEY: value" format as project records.
package changespec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bbugyi200/sase-github/internal/constants"
	"github.com/bbugyi200/sase-github/internal/ctxutil"
	"github.com/bbugyi200/sase-github/internal/domain"
	saseerrors "github.com/bbugyi200/sase-github/internal/errors"
	"github.com/bbugyi200/sase-github/internal/project"
)

// Record keys of a change record file.
const (
	keyName        = "NAME"
	keyStatus      = "STATUS"
	keyParent      = "PARENT"
	keyDescription = "DESCRIPTION"
	keyWorkflow    = "WORKFLOW"
)

// Store defines the interface for change record operations.
type Store interface {
	// FindAll returns every change record under the projects root, sorted by
	// project then name. Unreadable records are skipped.
	FindAll(ctx context.Context) ([]*domain.ChangeSpec, error)

	// Find returns the change record with the given name.
	// Returns ErrChangeNotFound if no record matches.
	Find(ctx context.Context, name string) (*domain.ChangeSpec, error)

	// SetStatus persists a new lifecycle status for the change.
	SetStatus(ctx context.Context, cs *domain.ChangeSpec, status constants.ChangeStatus) error
}

// FileStore implements Store by scanning the per-project-record root.
type FileStore struct {
	projectsRoot string
	records      project.Store
}

// NewFileStore creates a FileStore rooted at projectsRoot
// (typically ~/.sase/projects).
func NewFileStore(projectsRoot string, records project.Store) *FileStore {
	return &FileStore{projectsRoot: projectsRoot, records: records}
}

// FindAll returns every change record under the projects root.
func (s *FileStore) FindAll(ctx context.Context) ([]*domain.ChangeSpec, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.projectsRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return []*domain.ChangeSpec{}, nil
		}
		return nil, fmt.Errorf("failed to list projects in '%s': %w", s.projectsRoot, err)
	}

	specs := make([]*domain.ChangeSpec, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := ctxutil.Canceled(ctx); err != nil {
			return nil, err
		}

		projectName := entry.Name()
		projectFile := filepath.Join(s.projectsRoot, projectName, projectName+constants.ProjectFileExt)
		changesDir := filepath.Join(s.projectsRoot, projectName, constants.ChangesDir)

		changeEntries, err := os.ReadDir(changesDir)
		if err != nil {
			// Projects without a changes directory have no change records.
			continue
		}

		for _, ce := range changeEntries {
			if ce.IsDir() || !strings.HasSuffix(ce.Name(), constants.ChangeFileExt) {
				continue
			}
			cs, err := s.read(ctx, filepath.Join(changesDir, ce.Name()), projectFile, projectName)
			if err != nil {
				// Skip unreadable records rather than failing the whole scan.
				continue
			}
			specs = append(specs, cs)
		}
	}

	sort.Slice(specs, func(i, j int) bool {
		if specs[i].ProjectBasename != specs[j].ProjectBasename {
			return specs[i].ProjectBasename < specs[j].ProjectBasename
		}
		return specs[i].Name < specs[j].Name
	})
	return specs, nil
}

// Find returns the change record with the given name.
func (s *FileStore) Find(ctx context.Context, name string) (*domain.ChangeSpec, error) {
	all, err := s.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, cs := range all {
		if cs.Name == name {
			return cs, nil
		}
	}
	return nil, fmt.Errorf("change '%s': %w", name, saseerrors.ErrChangeNotFound)
}

// SetStatus persists a new lifecycle status for the change.
func (s *FileStore) SetStatus(ctx context.Context, cs *domain.ChangeSpec, status constants.ChangeStatus) error {
	if err := s.records.SetField(ctx, cs.FilePath, keyStatus, string(status)); err != nil {
		return fmt.Errorf("failed to update status of change '%s': %w", cs.Name, err)
	}
	cs.Status = status
	return nil
}

// read loads one change record file.
func (s *FileStore) read(ctx context.Context, path, projectFile, projectName string) (*domain.ChangeSpec, error) {
	fields, err := s.records.Fields(ctx, path)
	if err != nil {
		return nil, err
	}

	name := fields[keyName]
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), constants.ChangeFileExt)
	}

	return &domain.ChangeSpec{
		Name:            name,
		FilePath:        path,
		ProjectFile:     projectFile,
		ProjectBasename: projectName,
		Description:     fields[keyDescription],
		Parent:          fields[keyParent],
		Status:          constants.ChangeStatus(fields[keyStatus]),
		Workflow:        fields[keyWorkflow],
	}, nil
}

// HasActiveChildren reports whether any other change names cs as its parent
// while not yet in a terminal state. Such children block submission of cs.
func HasActiveChildren(cs *domain.ChangeSpec, all []*domain.ChangeSpec) bool {
	for _, other := range all {
		if other.FilePath == cs.FilePath {
			continue
		}
		if other.Parent == cs.Name && !other.Status.IsTerminal() {
			return true
		}
	}
	return false
}
