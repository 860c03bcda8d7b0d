// Package cli implements the learnhubctl admin commands.
package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/learnhub/backend/internal/config"
	"github.com/learnhub/backend/internal/docstore"
)

type storeFlags struct {
	driver     string
	mongoURI   string
	database   string
	sqlitePath string
}

// NewRootCmd builds the command tree. Store flags default to the same
// environment variables the API server reads.
func NewRootCmd() *cobra.Command {
	flags := &storeFlags{}

	root := &cobra.Command{
		Use:           "learnhubctl",
		Short:         "Admin tools for the LearnHub document store",
		Long:          "Import, export and inspect the learning resource collections served by the LearnHub API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
			defaults := config.LoadStoreConfig()
			if !cmd.Flags().Changed("driver") {
				flags.driver = defaults.Driver
			}
			if !cmd.Flags().Changed("mongo-uri") {
				flags.mongoURI = defaults.MongoURI
			}
			if !cmd.Flags().Changed("database") {
				flags.database = defaults.Database
			}
			if !cmd.Flags().Changed("sqlite-path") {
				flags.sqlitePath = defaults.SQLitePath
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.driver, "driver", "", "Store driver: sqlite or mongo (default: $STORE_DRIVER)")
	pf.StringVar(&flags.mongoURI, "mongo-uri", "", "MongoDB connection string (default: $MONGODB_URI)")
	pf.StringVar(&flags.database, "database", "", "MongoDB database name (default: $MONGODB_DATABASE)")
	pf.StringVar(&flags.sqlitePath, "sqlite-path", "", "SQLite database file (default: $SQLITE_PATH)")

	root.AddCommand(
		newExportCmd(flags),
		newImportCmd(flags),
		newStatsCmd(flags),
	)
	return root
}

func (f *storeFlags) open(cmd *cobra.Command) (*docstore.Backend, error) {
	return docstore.Open(cmd.Context(), docstore.Options{
		Driver:     f.driver,
		MongoURI:   f.mongoURI,
		Database:   f.database,
		SQLitePath: f.sqlitePath,
	})
}
