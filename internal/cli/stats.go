package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Stats is the stats command output.
type Stats struct {
	Driver      string           `json:"driver"`
	Collections map[string]int64 `json:"collections"`
	Total       int64            `json:"total"`
}

func newStatsCmd(flags *storeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show document counts per resource",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := flags.open(cmd)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer backend.Close(cmd.Context())

			stats := Stats{Driver: backend.Driver(), Collections: map[string]int64{}}
			for _, name := range resourceNames() {
				n, err := resources[name].count(cmd.Context(), backend)
				if err != nil {
					return fmt.Errorf("count %s: %w", name, err)
				}
				stats.Collections[name] = n
				stats.Total += n
			}

			b, _ := json.MarshalIndent(stats, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}
