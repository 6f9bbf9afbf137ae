// Package project provides persistence for sase project records.
//
// A project record is a line-oriented "KEY: value" file at
// ~/.sase/projects/<name>/<name>.gp. The GitHub provider reads and writes
// only the keys it owns (WORKSPACE_DIR) and preserves everything else in
// the file verbatim.
package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bbugyi200/sase-github/internal/constants"
	"github.com/bbugyi200/sase-github/internal/ctxutil"
	saseerrors "github.com/bbugyi200/sase-github/internal/errors"
	"github.com/bbugyi200/sase-github/internal/flock"
)

// Directory and file permission constants.
const (
	dirPerm  = 0o750 // Secure directory permissions
	filePerm = 0o600 // Secure file permissions
)

// Store defines the interface for project record operations.
type Store interface {
	// WorkspaceDir returns the recorded workspace directory for the project,
	// or empty when the record or the key is absent. Absence is not an error.
	WorkspaceDir(ctx context.Context, projectFile string) (string, error)

	// SetWorkspaceDir persists the workspace directory into the project
	// record, creating the record and its directory when needed.
	SetWorkspaceDir(ctx context.Context, projectFile, dir string) error

	// Field returns the value of an arbitrary record key, or empty when the
	// record or the key is absent.
	Field(ctx context.Context, projectFile, key string) (string, error)

	// SetField persists an arbitrary record key, creating the record and its
	// directory when needed. Other lines in the record are preserved.
	SetField(ctx context.Context, projectFile, key, value string) error

	// Fields returns every key of the record. A missing record yields an
	// empty map, not an error.
	Fields(ctx context.Context, projectFile string) (map[string]string, error)
}

// FileStore implements Store against the local filesystem. It is stateless;
// every call operates on the record path it is handed.
type FileStore struct{}

// NewFileStore creates a new FileStore.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// WorkspaceDir returns the recorded WORKSPACE_DIR value.
func (s *FileStore) WorkspaceDir(ctx context.Context, projectFile string) (string, error) {
	return s.Field(ctx, projectFile, constants.KeyWorkspaceDir)
}

// Field returns the value of a record key, or empty when absent.
func (s *FileStore) Field(ctx context.Context, projectFile, key string) (string, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return "", err
	}

	lines, err := readRecordLines(projectFile)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read project record '%s': %w", projectFile, err)
	}

	for _, line := range lines {
		if k, v, ok := parseRecordLine(line); ok && k == key {
			return v, nil
		}
	}
	return "", nil
}

// SetWorkspaceDir persists the workspace directory into the project record.
func (s *FileStore) SetWorkspaceDir(ctx context.Context, projectFile, dir string) error {
	if dir == "" {
		return fmt.Errorf("workspace dir: %w", saseerrors.ErrEmptyValue)
	}
	return s.SetField(ctx, projectFile, constants.KeyWorkspaceDir, dir)
}

// SetField persists a record key, preserving every other line verbatim.
func (s *FileStore) SetField(ctx context.Context, projectFile, key, value string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("record key: %w", saseerrors.ErrEmptyValue)
	}

	if err := os.MkdirAll(filepath.Dir(projectFile), dirPerm); err != nil {
		return fmt.Errorf("failed to create record directory for '%s': %w", projectFile, err)
	}

	lockFile, err := acquireLock(ctx, projectFile+".lock")
	if err != nil {
		return fmt.Errorf("failed to update record '%s': %w", projectFile, err)
	}
	defer func() { _ = releaseLock(lockFile) }()

	lines, err := readRecordLines(projectFile)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read record '%s': %w", projectFile, err)
	}

	lines = setRecordLine(lines, key, value)

	data := strings.Join(lines, "\n") + "\n"
	if err := atomicWrite(projectFile, []byte(data), filePerm); err != nil {
		return fmt.Errorf("failed to write record '%s': %w", projectFile, err)
	}
	return nil
}

// Fields returns every key of the record.
func (s *FileStore) Fields(ctx context.Context, projectFile string) (map[string]string, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	fields := make(map[string]string)
	lines, err := readRecordLines(projectFile)
	if err != nil {
		if os.IsNotExist(err) {
			return fields, nil
		}
		return nil, fmt.Errorf("failed to read record '%s': %w", projectFile, err)
	}

	for _, line := range lines {
		if k, v, ok := parseRecordLine(line); ok {
			fields[k] = v
		}
	}
	return fields, nil
}

// Basename returns the project name a record path belongs to,
// e.g. "/.../myproj/myproj.gp" -> "myproj".
func Basename(projectFile string) string {
	return strings.TrimSuffix(filepath.Base(projectFile), constants.ProjectFileExt)
}

// readRecordLines reads a record file into its lines, dropping a single
// trailing empty line from the final newline.
func readRecordLines(path string) ([]string, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- record paths are derived from config roots
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(data), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines, nil
}

// parseRecordLine splits a "KEY: value" line. Lines without a colon (or
// starting with '#') are passed through untouched by the writers.
func parseRecordLine(line string) (key, value string, ok bool) {
	if strings.HasPrefix(strings.TrimSpace(line), "#") {
		return "", "", false
	}
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}

// setRecordLine replaces the line holding key, or appends one.
func setRecordLine(lines []string, key, value string) []string {
	entry := key + ": " + value
	for i, line := range lines {
		if k, _, ok := parseRecordLine(line); ok && k == key {
			lines[i] = entry
			return lines
		}
	}
	return append(lines, entry)
}

// acquireLock acquires an exclusive file lock, retrying with a bounded
// deadline. It respects context cancellation during the retry loop.
func acquireLock(ctx context.Context, lockPath string) (*os.File, error) {
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, filePerm) //#nosec G302,G304 -- lock file needs write access, path derived from record path
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	deadline := time.Now().Add(constants.LockTimeout)
	for {
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, ctx.Err()
		default:
		}

		if err := flock.Exclusive(f.Fd()); err == nil {
			return f, nil
		}

		if time.Now().After(deadline) {
			_ = f.Close()
			return nil, fmt.Errorf("failed to acquire lock: %w", saseerrors.ErrLockTimeout)
		}

		time.Sleep(50 * time.Millisecond)
	}
}

// releaseLock releases a file lock and closes the handle.
func releaseLock(f *os.File) error {
	if f == nil {
		return nil
	}
	if err := flock.Unlock(f.Fd()); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return f.Close()
}

// atomicWrite writes data to a file atomically using write-then-rename.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm) //#nosec G304 -- path is constructed internally
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
