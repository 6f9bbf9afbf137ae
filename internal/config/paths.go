package config

import (
	"os"
	"path/filepath"

	"github.com/bbugyi200/sase-github/internal/constants"
	"github.com/bbugyi200/sase-github/internal/errors"
)

// Home returns the sase state directory for this configuration,
// typically ~/.sase. An explicit sase_home setting wins.
func (c *Config) Home() (string, error) {
	if c.SaseHome != "" {
		return c.SaseHome, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.SaseHome), nil
}

// ProjectsRoot returns the fixed per-project-record root,
// typically ~/.sase/projects.
func (c *Config) ProjectsRoot() (string, error) {
	home, err := c.Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, constants.ProjectsDir), nil
}

// PoolRoot returns the directory holding workspace pool state files,
// typically ~/.sase/pool.
func (c *Config) PoolRoot() (string, error) {
	home, err := c.Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, constants.PoolDir), nil
}

// LogsDir returns the directory for log files, typically ~/.sase/logs.
func (c *Config) LogsDir() (string, error) {
	home, err := c.Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, constants.LogsDir), nil
}

// WorkspacesRoot returns the fixed local root under which repo-path
// references derive workspace directories, typically ~/projects/github.
func (c *Config) WorkspacesRoot() (string, error) {
	if c.WorkspaceRoot != "" {
		return c.WorkspaceRoot, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, "projects", "github"), nil
}

// ProjectFilePath returns the path of a project's record file,
// <projects root>/<name>/<name>.gp.
func (c *Config) ProjectFilePath(name string) (string, error) {
	root, err := c.ProjectsRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, name, name+constants.ProjectFileExt), nil
}

// MergedConfigPath returns the path of the merged sase config file,
// typically ~/.config/sase/sase.yml.
func MergedConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, ".config", "sase", "sase.yml"), nil
}
