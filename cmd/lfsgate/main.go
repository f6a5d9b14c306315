package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/lfsgate/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "lfsgate",
	Short:   "Git LFS server with batch transfers and file locking",
	Long: `lfsgate is a Git LFS server that negotiates batch transfers,
stores object bytes on the local filesystem or S3, and keeps per-repository
file locks in SQLite, PostgreSQL or Badger.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
			files = append(files, configFile)
		}

		cfg, err := config.Load(files, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg.Log)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres, badger (env: LFSGATE_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string or directory (env: LFSGATE_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-type", "", "object storage: filesystem, s3 (env: LFSGATE_STORAGE_TYPE)")
	rootCmd.PersistentFlags().String("storage-path", "", "storage directory path (env: LFSGATE_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text, json")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
