package cli

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bbugyi200/sase-github/internal/constants"
	"github.com/bbugyi200/sase-github/internal/runner"
)

// setupKeys is the fixed key set of the setup command. The _chdir key
// tells the host which directory to enter for the run; the process
// itself never changes its working directory.
var setupKeys = []string{ //nolint:gochecknoglobals // Fixed output contract
	"project_name",
	"project_file",
	"workspace_dir",
	"workspace_num",
	"checkout_target",
	"primary_workspace_dir",
	"should_release",
	"head_before",
	"_chdir",
	"meta_workspace",
}

// AddSetupCommand adds the setup command to the parent command.
func AddSetupCommand(parent *cobra.Command) {
	var (
		ref  string
		num  int
		keep bool
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Resolve a reference, claim a workspace slot, and prepare its clone",
		Long: `Setup resolves the reference, claims a numbered workspace slot from
the project's pool, ensures the slot directory holds a clone, and
checks out the resolved target. With --num a specific slot is claimed
instead of the first available one. With --keep the claim stays pinned
after the run and should_release is false.

When the host pre-allocated a slot it passes the slot through the
SASE_GH_PRE_ALLOCATED, SASE_GH_WORKSPACE_NUM, and SASE_GH_WORKSPACE_DIR
environment variables; setup then claims that slot verbatim without
touching git.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := GetLogger()
			a, err := newApp(cmd.Context(), logger)
			if err != nil {
				return err
			}

			opts := runner.AllocateOptions{Release: !keep}
			if cmd.Flags().Changed("num") {
				opts.Num = &num
			}
			if pre := preallocationFromEnv(); pre != nil {
				opts.Preallocated = pre
			}

			rc, err := a.github.PreRun(cmd.Context(), ref, opts)
			if err != nil {
				return err
			}

			logger.Info().
				Str("ref", ref).
				Int("workspace_num", rc.WorkspaceNum).
				Str("workspace_dir", rc.WorkspaceDir).
				Bool("should_release", rc.ShouldRelease).
				Msg("workspace prepared")

			emitKeys(cmd.OutOrStdout(), setupKeys, map[string]string{
				"project_name":          rc.ProjectName,
				"project_file":          rc.ProjectFile,
				"workspace_dir":         rc.WorkspaceDir,
				"workspace_num":         strconv.Itoa(rc.WorkspaceNum),
				"checkout_target":       rc.CheckoutTarget,
				"primary_workspace_dir": rc.PrimaryWorkspaceDir,
				"should_release":        strconv.FormatBool(rc.ShouldRelease),
				"head_before":           rc.HeadBefore,
				"_chdir":                rc.WorkspaceDir,
				"meta_workspace":        strconv.Itoa(rc.WorkspaceNum),
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "", "reference to resolve (owner/project, project shorthand, or change name)")
	cmd.Flags().IntVar(&num, "num", 0, "claim a specific workspace slot number")
	cmd.Flags().BoolVar(&keep, "keep", false, "keep the slot claimed after the run")
	_ = cmd.MarkFlagRequired("ref")

	parent.AddCommand(cmd)
}

// preallocationFromEnv reads the host's pre-allocation environment trio.
// Returns nil unless SASE_GH_PRE_ALLOCATED is "1" and the slot number
// parses; a pre-allocated slot without a directory falls back to the
// pool's derived directory for that number.
func preallocationFromEnv() *runner.Preallocation {
	if os.Getenv(constants.EnvPreAllocated) != "1" {
		return nil
	}
	n, err := strconv.Atoi(os.Getenv(constants.EnvWorkspaceNum))
	if err != nil || n < 1 {
		return nil
	}
	return &runner.Preallocation{
		Num: n,
		Dir: os.Getenv(constants.EnvWorkspaceDir),
	}
}
