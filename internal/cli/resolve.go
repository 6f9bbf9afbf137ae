package cli

import (
	"github.com/spf13/cobra"
)

// resolveKeys is the fixed key set of the resolve command.
var resolveKeys = []string{ //nolint:gochecknoglobals // Fixed output contract
	"project_name",
	"project_file",
	"primary_workspace_dir",
	"checkout_target",
	"error",
}

// AddResolveCommand adds the resolve command to the parent command.
func AddResolveCommand(parent *cobra.Command) {
	var ref string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a textual reference to a workspace and checkout target",
		Long: `Resolve maps a reference onto a project record, its primary workspace
directory, and the branch to check out. References are tried as an
"owner/project" repository path first, then as a known project
shorthand, then as a change name. Resolution failures are reported in
the error key with the other keys left empty.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := GetLogger()
			a, err := newApp(cmd.Context(), logger)
			if err != nil {
				return err
			}

			values := map[string]string{}
			resolved, err := a.github.Resolve(cmd.Context(), ref)
			if err != nil {
				logger.Warn().Str("ref", ref).Err(err).Msg("resolution failed")
				values["error"] = err.Error()
			} else {
				values["project_name"] = resolved.ProjectName
				values["project_file"] = resolved.ProjectFile
				values["primary_workspace_dir"] = resolved.PrimaryWorkspaceDir
				values["checkout_target"] = resolved.CheckoutTarget
			}

			emitKeys(cmd.OutOrStdout(), resolveKeys, values)
			return nil
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "", "reference to resolve (owner/project, project shorthand, or change name)")
	_ = cmd.MarkFlagRequired("ref")

	parent.AddCommand(cmd)
}
