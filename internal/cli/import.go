package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newImportCmd(flags *storeFlags) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import <resource>",
		Short: "Import documents from JSON",
		Long:  "Import a JSON array of documents (stdin or --file) into a resource collection. Expects the format produced by export.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := lookup(args[0])
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			data, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			backend, err := flags.open(cmd)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer backend.Close(cmd.Context())

			imported, err := res.load(cmd.Context(), backend, data)
			if err != nil {
				return fmt.Errorf("import %s (%d imported): %w", res.name, imported, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"imported":%d}`+"\n", imported)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Read documents from this file instead of stdin")
	return cmd
}
