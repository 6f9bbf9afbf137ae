package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	saseerrors "github.com/bbugyi200/sase-github/internal/errors"
)

// mockResponse scripts one command outcome.
type mockResponse struct {
	stdout string
	stderr string
	err    error
}

// mockExecutor is a test double for Executor. Responses are keyed by the
// joined command line ("git rev-parse HEAD"); unscripted commands succeed
// with empty output.
type mockExecutor struct {
	responses map[string]mockResponse
	calls     []string
	workDirs  []string
}

func (m *mockExecutor) Execute(_ context.Context, workDir, name string, args ...string) (string, string, error) {
	line := name + " " + strings.Join(args, " ")
	m.calls = append(m.calls, line)
	m.workDirs = append(m.workDirs, workDir)
	if resp, ok := m.responses[line]; ok {
		return resp.stdout, resp.stderr, resp.err
	}
	return "", "", nil
}

func newTestClient(responses map[string]mockResponse) (*Client, *mockExecutor) {
	mock := &mockExecutor{responses: responses}
	return NewClient(WithExecutor(mock)), mock
}

func TestClient_Head(t *testing.T) {
	client, mock := newTestClient(map[string]mockResponse{
		"git rev-parse HEAD": {stdout: "abc123"},
	})

	head, err := client.Head(context.Background(), "/ws")
	require.NoError(t, err)
	assert.Equal(t, "abc123", head)
	assert.Equal(t, []string{"git rev-parse HEAD"}, mock.calls)
	assert.Equal(t, []string{"/ws"}, mock.workDirs)
}

func TestClient_RunWrapsStderr(t *testing.T) {
	client, _ := newTestClient(map[string]mockResponse{
		"git rev-parse HEAD": {stderr: "fatal: not a git repository", err: errors.New("exit status 128")},
	})

	_, err := client.Head(context.Background(), "/ws")
	require.Error(t, err)
	assert.ErrorIs(t, err, saseerrors.ErrGitOperation)
	assert.Contains(t, err.Error(), "not a git repository")
}

func TestClient_DefaultBranch(t *testing.T) {
	t.Run("reads the recorded remote head", func(t *testing.T) {
		client, _ := newTestClient(map[string]mockResponse{
			"git symbolic-ref refs/remotes/origin/HEAD --short": {stdout: "origin/develop"},
		})
		assert.Equal(t, "origin/develop", client.DefaultBranch(context.Background(), "/ws"))
	})

	t.Run("falls back when the remote head is not recorded", func(t *testing.T) {
		client, _ := newTestClient(map[string]mockResponse{
			"git symbolic-ref refs/remotes/origin/HEAD --short": {
				stderr: "fatal: ref refs/remotes/origin/HEAD is not a symbolic ref",
				err:    errors.New("exit status 128"),
			},
		})
		assert.Equal(t, FallbackDefaultBranch, client.DefaultBranch(context.Background(), "/ws"))
	})
}

func TestClient_PrepareWorkspace(t *testing.T) {
	t.Run("fetches, checks out and resets", func(t *testing.T) {
		client, mock := newTestClient(map[string]mockResponse{
			"git rev-parse HEAD": {stdout: "abc123"},
		})

		head, err := client.PrepareWorkspace(context.Background(), "/ws", "origin/main")
		require.NoError(t, err)
		assert.Equal(t, "abc123", head)
		assert.Equal(t, []string{
			"git fetch origin",
			"git checkout origin/main",
			"git reset --hard",
			"git rev-parse HEAD",
		}, mock.calls)
	})

	t.Run("empty target falls back to the default branch", func(t *testing.T) {
		client, mock := newTestClient(map[string]mockResponse{
			"git symbolic-ref refs/remotes/origin/HEAD --short": {stdout: "origin/develop"},
			"git rev-parse HEAD": {stdout: "abc123"},
		})

		_, err := client.PrepareWorkspace(context.Background(), "/ws", "")
		require.NoError(t, err)
		assert.Contains(t, mock.calls, "git checkout origin/develop")
	})

	t.Run("fetch and checkout failures are soft", func(t *testing.T) {
		client, mock := newTestClient(map[string]mockResponse{
			"git fetch origin":         {stderr: "could not resolve host", err: errors.New("exit status 1")},
			"git checkout origin/main": {stderr: "pathspec did not match", err: errors.New("exit status 1")},
			"git rev-parse HEAD":       {stdout: "abc123"},
		})

		head, err := client.PrepareWorkspace(context.Background(), "/ws", "origin/main")
		require.NoError(t, err)
		assert.Equal(t, "abc123", head)
		assert.Len(t, mock.calls, 4)
	})

	t.Run("unreadable head yields empty, not an error", func(t *testing.T) {
		client, _ := newTestClient(map[string]mockResponse{
			"git rev-parse HEAD": {stderr: "fatal: bad revision", err: errors.New("exit status 128")},
		})

		head, err := client.PrepareWorkspace(context.Background(), "/ws", "origin/main")
		require.NoError(t, err)
		assert.Empty(t, head)
	})
}

func TestClient_CaptureDiff(t *testing.T) {
	t.Run("writes a diff file", func(t *testing.T) {
		client, _ := newTestClient(map[string]mockResponse{
			"git diff abc123": {stdout: "diff --git a/main.go b/main.go"},
		})

		path := client.CaptureDiff(context.Background(), "/ws", "abc123")
		require.NotEmpty(t, path)
		t.Cleanup(func() { _ = os.Remove(path) })

		data, err := os.ReadFile(path) //#nosec G304 -- temp path produced by the code under test
		require.NoError(t, err)
		assert.Contains(t, string(data), "diff --git")
		assert.Equal(t, ".diff", filepath.Ext(path))
	})

	t.Run("empty starting head yields no path", func(t *testing.T) {
		client, mock := newTestClient(nil)
		assert.Empty(t, client.CaptureDiff(context.Background(), "/ws", ""))
		assert.Empty(t, mock.calls, "no git command should run without a starting head")
	})

	t.Run("empty diff yields no path", func(t *testing.T) {
		client, _ := newTestClient(nil)
		assert.Empty(t, client.CaptureDiff(context.Background(), "/ws", "abc123"))
	})

	t.Run("diff failure is soft", func(t *testing.T) {
		client, _ := newTestClient(map[string]mockResponse{
			"git diff abc123": {stderr: "fatal: bad object", err: errors.New("exit status 128")},
		})
		assert.Empty(t, client.CaptureDiff(context.Background(), "/ws", "abc123"))
	})
}

func TestClient_EnsureClone(t *testing.T) {
	t.Run("existing directory is left alone", func(t *testing.T) {
		dir := t.TempDir()
		client, mock := newTestClient(nil)

		require.NoError(t, client.EnsureClone(context.Background(), "/primary", dir))
		assert.Empty(t, mock.calls)
	})

	t.Run("missing directory is cloned from the primary", func(t *testing.T) {
		parent := t.TempDir()
		primary := filepath.Join(parent, "myproj")
		target := filepath.Join(parent, "myproj__2")

		client, mock := newTestClient(map[string]mockResponse{
			"git config --get remote.origin.url": {stdout: "git@github.com:octocat/myproj.git"},
		})

		require.NoError(t, client.EnsureClone(context.Background(), primary+"/", target))
		require.Len(t, mock.calls, 3)
		assert.Equal(t, "git clone "+primary+" "+target, mock.calls[0])
		assert.Equal(t, "git remote set-url origin git@github.com:octocat/myproj.git", mock.calls[2])
		assert.Equal(t, target, mock.workDirs[2])
	})
}

func TestClient_CloneFailureCarriesStderr(t *testing.T) {
	parent := t.TempDir()
	dest := filepath.Join(parent, "myproj")

	client, _ := newTestClient(map[string]mockResponse{
		"git clone https://github.com/octocat/myproj.git " + dest: {
			stderr: "fatal: repository not found",
			err:    errors.New("exit status 128"),
		},
	})

	err := client.Clone(context.Background(), "https://github.com/octocat/myproj.git", dest)
	require.Error(t, err)
	assert.ErrorIs(t, err, saseerrors.ErrGitOperation)
	assert.Contains(t, err.Error(), "repository not found")
}

func TestShortBranch(t *testing.T) {
	assert.Equal(t, "main", ShortBranch("origin/main"))
	assert.Equal(t, "fix-typo", ShortBranch("fix-typo"))
	assert.Equal(t, "feature/origin/x", ShortBranch("feature/origin/x"))
}
