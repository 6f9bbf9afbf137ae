package github

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

	"github.com/bbugyi200/sase-github/internal/project"
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

func newTestAdapter(responses map[string]mockResponse) (*Adapter, *mockExecutor) {
	mock := &mockExecutor{responses: responses}
	return NewAdapter(project.NewFileStore(), WithExecutor(mock)), mock
}

const prViewNumber = "gh pr view --json number -q .number"

func TestAdapter_ChangeURL(t *testing.T) {
	t.Run("returns the PR url", func(t *testing.T) {
		adapter, _ := newTestAdapter(map[string]mockResponse{
			"gh pr view --json url -q .url": {stdout: "https://github.com/octocat/hello-world/pull/42"},
		})
		ok, url := adapter.ChangeURL(context.Background(), "/ws")
		assert.True(t, ok)
		assert.Equal(t, "https://github.com/octocat/hello-world/pull/42", url)
	})

	t.Run("no PR is an empty answer, not a failure", func(t *testing.T) {
		adapter, _ := newTestAdapter(map[string]mockResponse{
			"gh pr view --json url -q .url": {stderr: "no pull requests found", err: errors.New("exit status 1")},
		})
		ok, url := adapter.ChangeURL(context.Background(), "/ws")
		assert.True(t, ok)
		assert.Empty(t, url)
	})
}

func TestAdapter_ChangeNumber(t *testing.T) {
	adapter, _ := newTestAdapter(map[string]mockResponse{
		prViewNumber: {stdout: "42"},
	})
	ok, num := adapter.ChangeNumber(context.Background(), "/ws")
	assert.True(t, ok)
	assert.Equal(t, "42", num)
}

func TestAdapter_HasPR(t *testing.T) {
	adapter, _ := newTestAdapter(map[string]mockResponse{
		prViewNumber: {stdout: "42"},
	})
	assert.True(t, adapter.HasPR(context.Background(), "/ws"))

	adapter, _ = newTestAdapter(map[string]mockResponse{
		prViewNumber: {stderr: "no pull requests found", err: errors.New("exit status 1")},
	})
	assert.False(t, adapter.HasPR(context.Background(), "/ws"))
}

func TestAdapter_Mail(t *testing.T) {
	t.Run("existing PR is left untouched", func(t *testing.T) {
		adapter, mock := newTestAdapter(map[string]mockResponse{
			prViewNumber: {stdout: "42"},
		})

		ok, msg := adapter.Mail(context.Background(), "fix-typo", "/ws")
		assert.True(t, ok)
		assert.Empty(t, msg)
		assert.Equal(t, []string{
			"git push -u origin fix-typo",
			prViewNumber,
		}, mock.calls)
	})

	t.Run("missing PR is created", func(t *testing.T) {
		adapter, mock := newTestAdapter(map[string]mockResponse{
			prViewNumber: {stderr: "no pull requests found", err: errors.New("exit status 1")},
		})

		ok, msg := adapter.Mail(context.Background(), "fix-typo", "/ws")
		assert.True(t, ok)
		assert.Empty(t, msg)
		assert.Equal(t, []string{
			"git push -u origin fix-typo",
			prViewNumber,
			"gh pr create --fill",
		}, mock.calls)
	})

	t.Run("push failure carries stderr", func(t *testing.T) {
		adapter, mock := newTestAdapter(map[string]mockResponse{
			"git push -u origin fix-typo": {stderr: "remote: permission denied", err: errors.New("exit status 128")},
		})

		ok, msg := adapter.Mail(context.Background(), "fix-typo", "/ws")
		assert.False(t, ok)
		assert.Equal(t, "git push failed: remote: permission denied", msg)
		assert.Len(t, mock.calls, 1)
	})

	t.Run("create failure carries stderr", func(t *testing.T) {
		adapter, _ := newTestAdapter(map[string]mockResponse{
			prViewNumber:          {stderr: "no pull requests found", err: errors.New("exit status 1")},
			"gh pr create --fill": {stderr: "GraphQL: base branch missing", err: errors.New("exit status 1")},
		})

		ok, msg := adapter.Mail(context.Background(), "fix-typo", "/ws")
		assert.False(t, ok)
		assert.Equal(t, "gh pr create failed: GraphQL: base branch missing", msg)
	})
}

func TestAdapter_MergePR(t *testing.T) {
	t.Run("merge succeeds", func(t *testing.T) {
		adapter, mock := newTestAdapter(nil)
		ok, msg := adapter.MergePR(context.Background(), "/ws")
		assert.True(t, ok)
		assert.Empty(t, msg)
		assert.Equal(t, []string{"gh pr merge --merge --delete-branch"}, mock.calls)
	})

	t.Run("merge failure prefers stderr", func(t *testing.T) {
		adapter, _ := newTestAdapter(map[string]mockResponse{
			"gh pr merge --merge --delete-branch": {
				stdout: "some progress output",
				stderr: "Pull request is not mergeable",
				err:    errors.New("exit status 1"),
			},
		})
		ok, msg := adapter.MergePR(context.Background(), "/ws")
		assert.False(t, ok)
		assert.Equal(t, "Pull request is not mergeable", msg)
	})

	t.Run("merge failure falls back to stdout", func(t *testing.T) {
		adapter, _ := newTestAdapter(map[string]mockResponse{
			"gh pr merge --merge --delete-branch": {stdout: "already merged", err: errors.New("exit status 1")},
		})
		ok, msg := adapter.MergePR(context.Background(), "/ws")
		assert.False(t, ok)
		assert.Equal(t, "already merged", msg)
	})
}

// writeProjectRecord writes a .gp record and returns its path.
func writeProjectRecord(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "myproj.gp")
	content := strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// newGitWorkspace creates a directory that looks like a git clone.
func newGitWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o750))
	return dir
}

func TestAdapter_Classify(t *testing.T) {
	const probe = "git config --get remote.origin.url"

	t.Run("remote origin qualifies", func(t *testing.T) {
		ws := newGitWorkspace(t)
		projectFile := writeProjectRecord(t, "WORKSPACE_DIR: "+ws)
		adapter, _ := newTestAdapter(map[string]mockResponse{
			probe: {stdout: "git@github.com:octocat/myproj.git"},
		})
		assert.Equal(t, "gh", adapter.Classify(context.Background(), projectFile))
	})

	t.Run("absent origin qualifies", func(t *testing.T) {
		ws := newGitWorkspace(t)
		projectFile := writeProjectRecord(t, "WORKSPACE_DIR: "+ws)
		adapter, _ := newTestAdapter(nil)
		assert.Equal(t, "gh", adapter.Classify(context.Background(), projectFile))
	})

	t.Run("unreadable origin still qualifies", func(t *testing.T) {
		ws := newGitWorkspace(t)
		projectFile := writeProjectRecord(t, "WORKSPACE_DIR: "+ws)
		adapter, _ := newTestAdapter(map[string]mockResponse{
			probe: {stderr: "fatal: unable to read config", err: errors.New("exit status 128")},
		})
		assert.Equal(t, "gh", adapter.Classify(context.Background(), projectFile))
	})

	t.Run("local path origin does not qualify", func(t *testing.T) {
		ws := newGitWorkspace(t)
		projectFile := writeProjectRecord(t, "WORKSPACE_DIR: "+ws)
		adapter, _ := newTestAdapter(map[string]mockResponse{
			probe: {stdout: "/srv/git/myproj.git"},
		})
		assert.Empty(t, adapter.Classify(context.Background(), projectFile))
	})

	t.Run("bare repo key disqualifies", func(t *testing.T) {
		ws := newGitWorkspace(t)
		projectFile := writeProjectRecord(t,
			"WORKSPACE_DIR: "+ws,
			"BARE_REPO_DIR: /srv/bare/myproj.git",
		)
		adapter, mock := newTestAdapter(nil)
		assert.Empty(t, adapter.Classify(context.Background(), projectFile))
		assert.Empty(t, mock.calls, "disqualified records must not probe the remote")
	})

	t.Run("missing workspace dir disqualifies", func(t *testing.T) {
		projectFile := writeProjectRecord(t, "DESCRIPTION: no workspace yet")
		adapter, _ := newTestAdapter(nil)
		assert.Empty(t, adapter.Classify(context.Background(), projectFile))
	})

	t.Run("workspace without .git disqualifies", func(t *testing.T) {
		ws := t.TempDir()
		projectFile := writeProjectRecord(t, "WORKSPACE_DIR: "+ws)
		adapter, _ := newTestAdapter(nil)
		assert.Empty(t, adapter.Classify(context.Background(), projectFile))
	})

	t.Run("unreadable record disqualifies", func(t *testing.T) {
		adapter, _ := newTestAdapter(nil)
		assert.Empty(t, adapter.Classify(context.Background(), filepath.Join(t.TempDir(), "missing.gp")))
	})
}

func TestIsRemoteURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://github.com/octocat/myproj.git", true},
		{"http://github.example.com/octocat/myproj.git", true},
		{"git@github.com:octocat/myproj.git", true},
		{"ssh://git@github.com/octocat/myproj.git", true},
		{"/srv/git/myproj.git", false},
		{"../myproj", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.url), func(t *testing.T) {
			assert.Equal(t, tt.want, isRemoteURL(tt.url))
		})
	}
}

func TestAdapter_ChangeLabel(t *testing.T) {
	adapter, _ := newTestAdapter(nil)
	assert.Equal(t, "PR", adapter.ChangeLabel())
}
