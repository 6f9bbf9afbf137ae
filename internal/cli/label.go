package cli

import (
	"github.com/spf13/cobra"
)

// labelKeys is the fixed key set of the label command.
var labelKeys = []string{"change_label"} //nolint:gochecknoglobals // Fixed output contract

// AddLabelCommand adds the label command to the parent command.
func AddLabelCommand(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Print how GitHub changes are labeled in host output",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), GetLogger())
			if err != nil {
				return err
			}

			emitKeys(cmd.OutOrStdout(), labelKeys, map[string]string{
				"change_label": a.github.ChangeLabel(),
			})
			return nil
		},
	}

	parent.AddCommand(cmd)
}
