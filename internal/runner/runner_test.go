package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbugyi200/sase-github/internal/domain"
	saseerrors "github.com/bbugyi200/sase-github/internal/errors"
	"github.com/bbugyi200/sase-github/internal/git"
	"github.com/bbugyi200/sase-github/internal/pool"
)

// mockResponse scripts one command outcome.
type mockResponse struct {
	stdout string
	stderr string
	err    error
}

// mockExecutor is a test double keyed by the joined command line.
// Unscripted commands succeed with empty output.
type mockExecutor struct {
	responses map[string]mockResponse
	calls     []string
}

func (m *mockExecutor) Execute(_ context.Context, _, name string, args ...string) (string, string, error) {
	line := name + " " + strings.Join(args, " ")
	m.calls = append(m.calls, line)
	if resp, ok := m.responses[line]; ok {
		return resp.stdout, resp.stderr, resp.err
	}
	return "", "", nil
}

// claimCall records the arguments of one Claim invocation.
type claimCall struct {
	projectFile string
	num         int
	owner       string
	pid         int
	changeID    string
	pinned      bool
}

// releaseCall records the arguments of one Release invocation.
type releaseCall struct {
	projectFile string
	num         int
	owner       string
	changeID    string
}

// fakeRegistry is an in-memory pool.Registry double.
type fakeRegistry struct {
	size           int
	firstAvailable int
	firstErr       error
	claimResult    bool
	claimErr       error
	claims         []claimCall
	releases       []releaseCall
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{size: 8, firstAvailable: 1, claimResult: true}
}

func (f *fakeRegistry) Claim(_ context.Context, projectFile string, num int, owner string, pid int, changeID string, pinned bool) (bool, error) {
	f.claims = append(f.claims, claimCall{projectFile, num, owner, pid, changeID, pinned})
	return f.claimResult, f.claimErr
}

func (f *fakeRegistry) Release(_ context.Context, projectFile string, num int, owner, changeID string) error {
	f.releases = append(f.releases, releaseCall{projectFile, num, owner, changeID})
	return nil
}

func (f *fakeRegistry) FirstAvailable(_ context.Context, _ string) (int, error) {
	return f.firstAvailable, f.firstErr
}

func (f *fakeRegistry) DirectoryFor(num int, primaryDir string) (string, error) {
	if num < 1 || num > f.size {
		return "", saseerrors.ErrSlotUnknown
	}
	if num == 1 {
		return primaryDir, nil
	}
	return fmt.Sprintf("%s__%d", strings.TrimRight(primaryDir, "/"), num), nil
}

func (f *fakeRegistry) Slots(_ context.Context, _ string) ([]pool.Slot, error) {
	return nil, nil
}

// resolvedRef builds a ResolvedRef whose primary directory exists on disk,
// so clone-ensure is a no-op.
func resolvedRef(t *testing.T) *domain.ResolvedRef {
	t.Helper()
	primary := filepath.Join(t.TempDir(), "myproj")
	require.NoError(t, os.MkdirAll(primary, 0o750))
	return &domain.ResolvedRef{
		ProjectName:         "myproj",
		ProjectFile:         "/tmp/sase/projects/myproj/myproj.gp",
		PrimaryWorkspaceDir: primary + "/",
		CheckoutTarget:      "origin/main",
	}
}

func TestAllocator_FirstAvailable(t *testing.T) {
	reg := newFakeRegistry()
	reg.firstAvailable = 1
	alloc := NewAllocator(reg, git.NewClient(git.WithExecutor(&mockExecutor{})))
	resolved := resolvedRef(t)

	rc, err := alloc.Allocate(context.Background(), "octocat/myproj", resolved, AllocateOptions{Release: true})
	require.NoError(t, err)
	assert.Equal(t, 1, rc.WorkspaceNum)
	assert.Equal(t, resolved.PrimaryWorkspaceDir, rc.WorkspaceDir)
	assert.True(t, rc.ShouldRelease)
	assert.Empty(t, rc.HeadBefore)

	require.Len(t, reg.claims, 1)
	claim := reg.claims[0]
	assert.Equal(t, "gh-octocat/myproj", claim.owner)
	assert.Equal(t, os.Getpid(), claim.pid)
	assert.Empty(t, claim.changeID)
	assert.False(t, claim.pinned, "a releasing run must not pin its claim")
}

func TestAllocator_ExplicitNum(t *testing.T) {
	reg := newFakeRegistry()
	mock := &mockExecutor{}
	alloc := NewAllocator(reg, git.NewClient(git.WithExecutor(mock)))
	resolved := resolvedRef(t)

	num := 3
	rc, err := alloc.Allocate(context.Background(), "octocat/myproj", resolved, AllocateOptions{Num: &num})
	require.NoError(t, err)
	assert.Equal(t, 3, rc.WorkspaceNum)

	wantDir := strings.TrimRight(resolved.PrimaryWorkspaceDir, "/") + "__3"
	assert.Equal(t, wantDir, rc.WorkspaceDir)

	// The slot clone was absent, so it gets created from the primary.
	require.NotEmpty(t, mock.calls)
	assert.Contains(t, mock.calls[0], "git clone")
	assert.Contains(t, mock.calls[0], wantDir)

	require.Len(t, reg.claims, 1)
	assert.True(t, reg.claims[0].pinned, "a non-releasing run pins its claim")
}

func TestAllocator_Preallocated(t *testing.T) {
	reg := newFakeRegistry()
	mock := &mockExecutor{}
	alloc := NewAllocator(reg, git.NewClient(git.WithExecutor(mock)))
	resolved := resolvedRef(t)

	rc, err := alloc.Allocate(context.Background(), "octocat/myproj", resolved, AllocateOptions{
		Release:      true,
		Preallocated: &Preallocation{Num: 5, Dir: "/already/allocated/myproj__5"},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, rc.WorkspaceNum)
	assert.Equal(t, "/already/allocated/myproj__5", rc.WorkspaceDir)

	// Pre-allocation trusts the front-end: no clone, only the final claim.
	assert.Empty(t, mock.calls)
	require.Len(t, reg.claims, 1)
	assert.Equal(t, 5, reg.claims[0].num)
}

func TestAllocator_ClaimRefused(t *testing.T) {
	reg := newFakeRegistry()
	reg.claimResult = false
	alloc := NewAllocator(reg, git.NewClient(git.WithExecutor(&mockExecutor{})))

	_, err := alloc.Allocate(context.Background(), "octocat/myproj", resolvedRef(t), AllocateOptions{Release: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, saseerrors.ErrSlotClaimed)
	assert.Contains(t, err.Error(), "workspace #1 is already claimed")
}

func TestAllocator_PoolExhausted(t *testing.T) {
	reg := newFakeRegistry()
	reg.firstErr = saseerrors.ErrPoolExhausted
	alloc := NewAllocator(reg, git.NewClient(git.WithExecutor(&mockExecutor{})))

	_, err := alloc.Allocate(context.Background(), "octocat/myproj", resolvedRef(t), AllocateOptions{Release: true})
	assert.ErrorIs(t, err, saseerrors.ErrPoolExhausted)
	assert.Empty(t, reg.claims)
}

func newRunnerContext(t *testing.T, checkoutTarget string) *domain.RunnerContext {
	t.Helper()
	return &domain.RunnerContext{
		ProjectName:         "myproj",
		ProjectFile:         "/tmp/sase/projects/myproj/myproj.gp",
		PrimaryWorkspaceDir: "/home/user/projects/github/octocat/myproj/",
		CheckoutTarget:      checkoutTarget,
		WorkspaceDir:        t.TempDir(),
		WorkspaceNum:        2,
		ShouldRelease:       true,
	}
}

func TestLifecycle_PreRun(t *testing.T) {
	mock := &mockExecutor{responses: map[string]mockResponse{
		"git rev-parse HEAD": {stdout: "abc123"},
	}}
	lc := NewLifecycle(newFakeRegistry(), git.NewClient(git.WithExecutor(mock)))
	rc := newRunnerContext(t, "origin/main")

	require.NoError(t, lc.PreRun(context.Background(), rc))
	assert.Equal(t, "abc123", rc.HeadBefore)
	assert.Contains(t, mock.calls, "git checkout origin/main")
}

func TestLifecycle_PostRun(t *testing.T) {
	t.Run("releases under the checkout target tag", func(t *testing.T) {
		reg := newFakeRegistry()
		lc := NewLifecycle(reg, git.NewClient(git.WithExecutor(&mockExecutor{})))
		rc := newRunnerContext(t, "origin/fix-typo")

		result, err := lc.PostRun(context.Background(), rc)
		require.NoError(t, err)
		require.Len(t, reg.releases, 1)
		assert.Equal(t, "gh-origin/fix-typo", reg.releases[0].owner)
		assert.Empty(t, reg.releases[0].changeID, "a slash-bearing target is not a change id")
		assert.Equal(t, map[string]string{"meta_workspace": "2"}, result.Meta)
	})

	t.Run("plain branch targets double as the change id", func(t *testing.T) {
		reg := newFakeRegistry()
		lc := NewLifecycle(reg, git.NewClient(git.WithExecutor(&mockExecutor{})))
		rc := newRunnerContext(t, "fix-typo")

		_, err := lc.PostRun(context.Background(), rc)
		require.NoError(t, err)
		require.Len(t, reg.releases, 1)
		assert.Equal(t, "fix-typo", reg.releases[0].changeID)
	})

	t.Run("pinned runs keep their slot", func(t *testing.T) {
		reg := newFakeRegistry()
		lc := NewLifecycle(reg, git.NewClient(git.WithExecutor(&mockExecutor{})))
		rc := newRunnerContext(t, "origin/main")
		rc.ShouldRelease = false

		_, err := lc.PostRun(context.Background(), rc)
		require.NoError(t, err)
		assert.Empty(t, reg.releases)
	})

	t.Run("captures diff and commit message when the head moved", func(t *testing.T) {
		mock := &mockExecutor{responses: map[string]mockResponse{
			"git diff abc123":        {stdout: "diff --git a/main.go b/main.go"},
			"git rev-parse HEAD":     {stdout: "def456"},
			"git log -1 --pretty=%s": {stdout: "Fix the typo"},
		}}
		lc := NewLifecycle(newFakeRegistry(), git.NewClient(git.WithExecutor(mock)))
		rc := newRunnerContext(t, "origin/fix-typo")
		rc.HeadBefore = "abc123"

		result, err := lc.PostRun(context.Background(), rc)
		require.NoError(t, err)
		require.NotEmpty(t, result.DiffPath)
		t.Cleanup(func() { _ = os.Remove(result.DiffPath) })
		assert.Equal(t, "Fix the typo", result.Meta["meta_commit_message"])
	})

	t.Run("unmoved head yields no commit message", func(t *testing.T) {
		mock := &mockExecutor{responses: map[string]mockResponse{
			"git rev-parse HEAD": {stdout: "abc123"},
		}}
		lc := NewLifecycle(newFakeRegistry(), git.NewClient(git.WithExecutor(mock)))
		rc := newRunnerContext(t, "origin/fix-typo")
		rc.HeadBefore = "abc123"

		result, err := lc.PostRun(context.Background(), rc)
		require.NoError(t, err)
		assert.NotContains(t, result.Meta, "meta_commit_message")
		assert.Empty(t, result.DiffPath)
	})

	t.Run("metadata git failures are soft", func(t *testing.T) {
		mock := &mockExecutor{responses: map[string]mockResponse{
			"git diff abc123":    {stderr: "fatal: bad object", err: errors.New("exit status 128")},
			"git rev-parse HEAD": {stderr: "fatal: bad revision", err: errors.New("exit status 128")},
		}}
		lc := NewLifecycle(newFakeRegistry(), git.NewClient(git.WithExecutor(mock)))
		rc := newRunnerContext(t, "origin/fix-typo")
		rc.HeadBefore = "abc123"

		result, err := lc.PostRun(context.Background(), rc)
		require.NoError(t, err)
		assert.Empty(t, result.DiffPath)
		assert.Equal(t, map[string]string{"meta_workspace": "2"}, result.Meta)
	})
}
