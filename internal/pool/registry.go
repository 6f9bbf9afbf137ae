// Package pool provides the workspace pool registry: a persistent store
// mapping each project to a fixed set of numbered workspace slots that
// concurrent automated runs claim and release.
//
// The registry's backing store is a JSON file per project, written
// atomically and guarded by an exclusive file lock. The lock is the sole
// synchronization point between independent sase processes; a data race on
// slot assignment is a correctness bug, not a performance concern.
package pool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bbugyi200/sase-github/internal/constants"
	"github.com/bbugyi200/sase-github/internal/ctxutil"
	saseerrors "github.com/bbugyi200/sase-github/internal/errors"
	"github.com/bbugyi200/sase-github/internal/flock"
	"github.com/bbugyi200/sase-github/internal/project"
)

// CurrentSchemaVersion is the current version of the pool state schema.
const CurrentSchemaVersion = 1

// Directory and file permission constants.
const (
	dirPerm  = 0o750 // Secure directory permissions
	filePerm = 0o600 // Secure file permissions
)

// Slot is one claimable workspace slot. A slot with an empty Owner is
// available.
type Slot struct {
	// Num is the slot identifier, 1..pool size.
	Num int `json:"num"`

	// Owner is the workflow tag holding the claim, e.g. "gh-octocat/hello-world".
	Owner string `json:"owner,omitempty"`

	// PID is the process id of the claimant.
	PID int `json:"pid,omitempty"`

	// ChangeID names the change the claim is working on, when known.
	ChangeID string `json:"change_id,omitempty"`

	// Pinned marks the claim exempt from opportunistic release and reuse.
	Pinned bool `json:"pinned,omitempty"`

	// ClaimedAt records when the claim was taken.
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
}

// state is the serialized pool of one project.
type state struct {
	SchemaVersion int    `json:"schema_version"`
	Slots         []Slot `json:"slots"`
}

// Registry defines claim/release coordination over a project's slot pool.
type Registry interface {
	// Claim acquires a slot under the given workflow owner tag. Returns
	// false (without error) when the slot is held by a different owner.
	// Re-claiming under the same owner refreshes the claim.
	Claim(ctx context.Context, projectFile string, num int, owner string, pid int, changeID string, pinned bool) (bool, error)

	// Release gives up a slot. Releasing an unclaimed slot is a no-op. The
	// owner and change id are advisory bookkeeping: the caller decides when
	// a slot is done, tags may differ from the claim's.
	Release(ctx context.Context, projectFile string, num int, owner, changeID string) error

	// FirstAvailable returns the lowest unclaimed slot number.
	// Returns ErrPoolExhausted when every slot is claimed.
	FirstAvailable(ctx context.Context, projectFile string) (int, error)

	// DirectoryFor maps a slot number onto its working directory, derived
	// from the project's primary workspace directory.
	// Returns ErrSlotUnknown for a number outside the pool.
	DirectoryFor(num int, primaryDir string) (string, error)

	// Slots returns a snapshot of the project's slot pool.
	Slots(ctx context.Context, projectFile string) ([]Slot, error)
}

// FileRegistry implements Registry with per-project JSON state files under
// a base directory (typically ~/.sase/pool).
type FileRegistry struct {
	baseDir string
	size    int
	logger  zerolog.Logger
}

// RegistryOption configures a FileRegistry.
type RegistryOption func(*FileRegistry)

// WithLogger sets the logger for registry operations.
func WithLogger(logger zerolog.Logger) RegistryOption {
	return func(r *FileRegistry) {
		r.logger = logger
	}
}

// NewFileRegistry creates a FileRegistry with the given base directory and
// pool size. A non-positive size falls back to the default pool size.
func NewFileRegistry(baseDir string, size int, opts ...RegistryOption) *FileRegistry {
	if size < 1 {
		size = constants.DefaultPoolSize
	}
	r := &FileRegistry{baseDir: baseDir, size: size, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Claim acquires a slot under the given workflow owner tag.
func (r *FileRegistry) Claim(ctx context.Context, projectFile string, num int, owner string, pid int, changeID string, pinned bool) (bool, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return false, err
	}
	if owner == "" {
		return false, fmt.Errorf("claim owner: %w", saseerrors.ErrEmptyValue)
	}
	if num < 1 || num > r.size {
		return false, fmt.Errorf("slot %d of pool '%s': %w", num, project.Basename(projectFile), saseerrors.ErrSlotUnknown)
	}

	var claimed bool
	err := r.withLockedState(ctx, projectFile, func(st *state) error {
		slot := &st.Slots[num-1]
		if slot.Owner != "" && slot.Owner != owner {
			claimed = false
			return nil
		}
		now := time.Now()
		slot.Owner = owner
		slot.PID = pid
		slot.ChangeID = changeID
		slot.Pinned = pinned
		slot.ClaimedAt = &now
		claimed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to claim workspace #%d: %w", num, err)
	}
	return claimed, nil
}

// Release gives up a slot. The owner and change id tags are logged but not
// verified against the claim; claim and release tags legitimately differ
// when a run releases under its checkout target instead of its reference.
func (r *FileRegistry) Release(ctx context.Context, projectFile string, num int, owner, changeID string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}
	if num < 1 || num > r.size {
		return fmt.Errorf("slot %d of pool '%s': %w", num, project.Basename(projectFile), saseerrors.ErrSlotUnknown)
	}

	err := r.withLockedState(ctx, projectFile, func(st *state) error {
		prev := st.Slots[num-1]
		if prev.Owner != "" && prev.Owner != owner {
			r.logger.Debug().
				Str("claim_owner", prev.Owner).
				Str("release_owner", owner).
				Str("change_id", changeID).
				Int("num", num).
				Msg("releasing slot claimed under a different tag")
		}
		st.Slots[num-1] = Slot{Num: num}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to release workspace #%d: %w", num, err)
	}
	return nil
}

// FirstAvailable returns the lowest unclaimed slot number.
func (r *FileRegistry) FirstAvailable(ctx context.Context, projectFile string) (int, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return 0, err
	}

	num := 0
	err := r.withLockedState(ctx, projectFile, func(st *state) error {
		for _, slot := range st.Slots {
			if slot.Owner == "" {
				num = slot.Num
				return nil
			}
		}
		return fmt.Errorf("all %d workspaces of '%s' are claimed: %w", r.size, project.Basename(projectFile), saseerrors.ErrPoolExhausted)
	})
	if err != nil {
		return 0, err
	}
	return num, nil
}

// DirectoryFor maps a slot number onto its working directory. Slot 1 is the
// primary workspace directory itself; higher slots append a __<num> suffix.
func (r *FileRegistry) DirectoryFor(num int, primaryDir string) (string, error) {
	if num < 1 || num > r.size {
		return "", fmt.Errorf("slot %d: %w", num, saseerrors.ErrSlotUnknown)
	}
	if num == 1 {
		return primaryDir, nil
	}
	base := strings.TrimRight(primaryDir, string(os.PathSeparator))
	return fmt.Sprintf("%s__%d", base, num), nil
}

// Slots returns a snapshot of the project's slot pool.
func (r *FileRegistry) Slots(ctx context.Context, projectFile string) ([]Slot, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	var snapshot []Slot
	err := r.withLockedState(ctx, projectFile, func(st *state) error {
		snapshot = make([]Slot, len(st.Slots))
		copy(snapshot, st.Slots)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// statePath returns the pool state file of a project.
func (r *FileRegistry) statePath(projectFile string) string {
	return filepath.Join(r.baseDir, project.Basename(projectFile)+".json")
}

// withLockedState runs fn against the project's pool state under the
// exclusive file lock, persisting the state afterward. The lock spans
// read-modify-write so concurrent claimants serialize.
func (r *FileRegistry) withLockedState(ctx context.Context, projectFile string, fn func(*state) error) error {
	if err := os.MkdirAll(r.baseDir, dirPerm); err != nil {
		return fmt.Errorf("failed to create pool directory: %w", err)
	}

	path := r.statePath(projectFile)
	lockFile, err := r.acquireLock(ctx, path+".lock")
	if err != nil {
		return err
	}
	defer func() { _ = r.releaseLock(lockFile) }()

	st, err := r.load(path)
	if err != nil {
		return err
	}

	if err := fn(st); err != nil {
		return err
	}

	return r.save(path, st)
}

// load reads the pool state, initializing a fresh pool when the file is
// absent.
func (r *FileRegistry) load(path string) (*state, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is derived from the registry base dir
	if err != nil {
		if os.IsNotExist(err) {
			return r.freshState(), nil
		}
		return nil, fmt.Errorf("failed to read pool state '%s': %w", path, err)
	}

	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("pool state '%s' is corrupted: %w", path, saseerrors.ErrRecordCorrupted)
	}

	// Grow the pool in place if the configured size increased. Shrinking is
	// not supported; claimed high slots would be stranded.
	for len(st.Slots) < r.size {
		st.Slots = append(st.Slots, Slot{Num: len(st.Slots) + 1})
	}
	return &st, nil
}

// freshState builds an empty pool of the configured size.
func (r *FileRegistry) freshState() *state {
	st := &state{SchemaVersion: CurrentSchemaVersion, Slots: make([]Slot, r.size)}
	for i := range st.Slots {
		st.Slots[i] = Slot{Num: i + 1}
	}
	return st
}

// save writes the pool state atomically using write-then-rename.
func (r *FileRegistry) save(path string, st *state) error {
	st.SchemaVersion = CurrentSchemaVersion
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal pool state: %w", err)
	}

	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm) //#nosec G304 -- path is constructed internally
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write pool state: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync pool state: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close pool state: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename pool state: %w", err)
	}
	return nil
}

// acquireLock acquires the exclusive pool lock with a bounded retry loop.
// It respects context cancellation while waiting.
func (r *FileRegistry) acquireLock(ctx context.Context, lockPath string) (*os.File, error) {
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, filePerm) //#nosec G302,G304 -- lock file needs write access, path is constructed internally
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
			return nil, fmt.Errorf("failed to acquire pool lock: %w", saseerrors.ErrLockTimeout)
		}

		time.Sleep(50 * time.Millisecond)
	}
}

// releaseLock releases the pool lock and closes the handle.
func (r *FileRegistry) releaseLock(f *os.File) error {
	if f == nil {
		return nil
	}
	if err := flock.Unlock(f.Fd()); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to release pool lock: %w", err)
	}
	return f.Close()
}
