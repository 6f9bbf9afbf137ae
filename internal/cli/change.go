package cli

import (
	"github.com/spf13/cobra"
)

// changeURLKeys is the fixed key set of the change-url command.
var changeURLKeys = []string{"url"} //nolint:gochecknoglobals // Fixed output contract

// changeNumberKeys is the fixed key set of the change-number command.
var changeNumberKeys = []string{"number"} //nolint:gochecknoglobals // Fixed output contract

// AddChangeURLCommand adds the change-url command to the parent command.
func AddChangeURLCommand(parent *cobra.Command) {
	var dir string

	cmd := &cobra.Command{
		Use:   "change-url",
		Short: "Print the pull request URL for the current branch",
		Long: `Change-url asks gh for the pull request URL of the branch checked out
in the working directory. A branch without a pull request prints an
empty url.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := GetLogger()
			a, err := newApp(cmd.Context(), logger)
			if err != nil {
				return err
			}

			_, url := a.github.ChangeURL(cmd.Context(), dir)
			emitKeys(cmd.OutOrStdout(), changeURLKeys, map[string]string{
				"url": url,
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "working directory for gh")
	parent.AddCommand(cmd)
}

// AddChangeNumberCommand adds the change-number command to the parent command.
func AddChangeNumberCommand(parent *cobra.Command) {
	var dir string

	cmd := &cobra.Command{
		Use:   "change-number",
		Short: "Print the pull request number for the current branch",
		Long: `Change-number asks gh for the pull request number of the branch
checked out in the working directory. A branch without a pull request
prints an empty number.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := GetLogger()
			a, err := newApp(cmd.Context(), logger)
			if err != nil {
				return err
			}

			_, number := a.github.ChangeNumber(cmd.Context(), dir)
			emitKeys(cmd.OutOrStdout(), changeNumberKeys, map[string]string{
				"number": number,
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "working directory for gh")
	parent.AddCommand(cmd)
}
