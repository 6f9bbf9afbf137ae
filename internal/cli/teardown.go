package cli

import (
	"github.com/spf13/cobra"

	"github.com/bbugyi200/sase-github/internal/domain"
)

// teardownKeys is the fixed key set of the teardown command.
var teardownKeys = []string{ //nolint:gochecknoglobals // Fixed output contract
	"diff_path",
	"meta_workspace",
	"meta_commit_message",
}

// AddTeardownCommand adds the teardown command to the parent command.
func AddTeardownCommand(parent *cobra.Command) {
	var (
		projectFile    string
		workspaceDir   string
		num            int
		checkoutTarget string
		headBefore     string
		keep           bool
	)

	cmd := &cobra.Command{
		Use:   "teardown",
		Short: "Finish a run: release the workspace slot and collect run metadata",
		Long: `Teardown releases the workspace slot claimed by setup (unless --keep
was in effect), captures a diff of the run against the head recorded
at setup time, and reports the subject of the newest commit when the
head moved. Metadata collection failures are soft; the keys are
printed empty.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := GetLogger()
			a, err := newApp(cmd.Context(), logger)
			if err != nil {
				return err
			}

			rc := &domain.RunnerContext{
				ProjectFile:    projectFile,
				WorkspaceDir:   workspaceDir,
				WorkspaceNum:   num,
				CheckoutTarget: checkoutTarget,
				HeadBefore:     headBefore,
				ShouldRelease:  !keep,
			}

			result, err := a.github.PostRun(cmd.Context(), rc)
			if err != nil {
				return err
			}

			logger.Info().
				Int("workspace_num", num).
				Str("diff_path", result.DiffPath).
				Msg("run finished")

			emitKeys(cmd.OutOrStdout(), teardownKeys, map[string]string{
				"diff_path":           result.DiffPath,
				"meta_workspace":      result.Meta[domain.MetaWorkspace],
				"meta_commit_message": result.Meta[domain.MetaCommitMessage],
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&projectFile, "project-file", "", "path to the project record (.gp file)")
	cmd.Flags().StringVar(&workspaceDir, "workspace-dir", "", "workspace directory used by the run")
	cmd.Flags().IntVar(&num, "num", 0, "workspace slot number claimed for the run")
	cmd.Flags().StringVar(&checkoutTarget, "checkout-target", "", "branch or ref the run checked out")
	cmd.Flags().StringVar(&headBefore, "head-before", "", "commit id captured at setup time")
	cmd.Flags().BoolVar(&keep, "keep", false, "leave the slot claimed")
	_ = cmd.MarkFlagRequired("project-file")
	_ = cmd.MarkFlagRequired("workspace-dir")
	_ = cmd.MarkFlagRequired("num")
	_ = cmd.MarkFlagRequired("checkout-target")

	parent.AddCommand(cmd)
}
