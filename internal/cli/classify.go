package cli

import (
	"github.com/spf13/cobra"
)

// classifyKeys is the fixed key set of the classify command.
var classifyKeys = []string{"workflow_type"} //nolint:gochecknoglobals // Fixed output contract

// AddClassifyCommand adds the classify command to the parent command.
func AddClassifyCommand(parent *cobra.Command) {
	var projectFile string

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Report whether a project is a GitHub-hosted workspace",
		Long: `Classify inspects a project record and its workspace directory and
prints workflow_type=gh when the workspace is a non-bare git clone
whose origin remote points at a network URL. Any other project prints
an empty workflow_type so other providers can claim it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := GetLogger()
			a, err := newApp(cmd.Context(), logger)
			if err != nil {
				return err
			}

			verdict := a.providers.ClassifyAll(cmd.Context(), projectFile)
			logger.Debug().
				Str("project_file", projectFile).
				Str("workflow_type", verdict).
				Msg("classified project")

			emitKeys(cmd.OutOrStdout(), classifyKeys, map[string]string{
				"workflow_type": verdict,
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&projectFile, "project-file", "", "path to the project record (.gp file)")
	_ = cmd.MarkFlagRequired("project-file")

	parent.AddCommand(cmd)
}
