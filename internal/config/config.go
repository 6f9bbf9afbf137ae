// Package config provides configuration management for sase-github with
// layered precedence.
//
// Configuration sources are loaded in the following order (highest
// precedence first):
//  1. Environment variables (SASE_* prefix)
//  2. The merged sase config file (~/.config/sase/sase.yml)
//  3. Built-in defaults
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import internal/domain or other internal packages.
package config

import "time"

// Config is the root configuration structure for the GitHub provider.
type Config struct {
	// GitHubUsername is the local user's GitHub login. When it matches the
	// owner of a repo-path reference, clones use the authenticated SSH URL
	// form instead of anonymous HTTPS.
	GitHubUsername string `yaml:"github_username" mapstructure:"github_username"`

	// SaseHome is the sase state directory. Empty means ~/.sase.
	SaseHome string `yaml:"sase_home" mapstructure:"sase_home"`

	// WorkspaceRoot is the fixed local root under which repo-path references
	// derive their workspace directories. Empty means ~/projects/github.
	WorkspaceRoot string `yaml:"workspace_root" mapstructure:"workspace_root"`

	// PoolSize is the number of numbered workspace slots per project.
	PoolSize int `yaml:"pool_size" mapstructure:"pool_size"`

	// ProbeTimeout bounds the git remote probe used during workflow-type
	// classification. On expiry the probe is treated as a soft failure.
	ProbeTimeout time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout"`
}
