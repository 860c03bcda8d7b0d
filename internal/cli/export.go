package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newExportCmd(flags *storeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "export <resource>",
		Short: "Export a resource collection as JSON",
		Long:  "Export every document of a resource collection as a JSON array. The output can be fed back to import.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := lookup(args[0])
			if err != nil {
				return err
			}

			backend, err := flags.open(cmd)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer backend.Close(cmd.Context())

			docs, err := res.export(cmd.Context(), backend)
			if err != nil {
				return fmt.Errorf("export %s: %w", res.name, err)
			}

			b, err := json.MarshalIndent(docs, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}
