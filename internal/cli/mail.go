package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// mailKeys is the fixed key set of the mail command.
var mailKeys = []string{"success", "error"} //nolint:gochecknoglobals // Fixed output contract

// AddMailCommand adds the mail command to the parent command.
func AddMailCommand(parent *cobra.Command) {
	var (
		revision string
		dir      string
	)

	cmd := &cobra.Command{
		Use:   "mail",
		Short: "Push a revision and ensure it has a pull request",
		Long: `Mail pushes the revision to origin with upstream tracking and creates
a pull request for the branch unless one already exists. Failures
carry the failing tool's stderr in the error key.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := GetLogger()
			a, err := newApp(cmd.Context(), logger)
			if err != nil {
				return err
			}

			ok, detail := a.github.Mail(cmd.Context(), revision, dir)
			if !ok {
				logger.Warn().Str("revision", revision).Str("detail", detail).Msg("mail failed")
			}

			emitKeys(cmd.OutOrStdout(), mailKeys, map[string]string{
				"success": strconv.FormatBool(ok),
				"error":   detail,
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&revision, "revision", "", "branch or revision to push")
	cmd.Flags().StringVar(&dir, "dir", ".", "working directory for git and gh")
	_ = cmd.MarkFlagRequired("revision")

	parent.AddCommand(cmd)
}
