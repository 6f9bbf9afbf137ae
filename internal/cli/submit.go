package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// submitKeys is the fixed key set of the submit command.
var submitKeys = []string{"success", "error"} //nolint:gochecknoglobals // Fixed output contract

// AddSubmitCommand adds the submit command to the parent command.
func AddSubmitCommand(parent *cobra.Command) {
	var change string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Merge the pull request of a change",
		Long: `Submit merges the pull request of the named change after checking the
submission preconditions: the change must belong to a GitHub project,
no other change may depend on it, the project must have a recorded
workspace directory, and the branch must have a pull request. A change
that belongs to another provider declines with success=false and an
empty error so the host can try elsewhere.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := GetLogger()
			a, err := newApp(cmd.Context(), logger)
			if err != nil {
				return err
			}

			ok, detail := a.github.Submit(cmd.Context(), change)
			if !ok && detail != "" {
				logger.Warn().Str("change", change).Str("detail", detail).Msg("submit failed")
			}

			emitKeys(cmd.OutOrStdout(), submitKeys, map[string]string{
				"success": strconv.FormatBool(ok),
				"error":   detail,
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&change, "change", "", "name of the change to submit")
	_ = cmd.MarkFlagRequired("change")

	parent.AddCommand(cmd)
}
