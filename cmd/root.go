package cmd

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"s3transfer/config"
	"s3transfer/pkg/utils"
)

var (
	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "s3transfer",
	Short: "Bucket-to-bucket transfer and lane download service",
	Long: `s3transfer copies objects between S3 buckets and downloads the objects
recorded for a lane and hour into a local directory tree, tracking each file
in MongoDB.
It can run as an HTTP API (serve) or execute a single operation from the
command line. Configuration is loaded from .env file or environment variables`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := cfg.LogLevel
		if isVerbose(cmd) {
			level = "debug"
		}
		closer, err := utils.SetupLogger(cfg.LogFile, level)
		if err != nil {
			return err
		}
		logCloser = closer
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			if err := logCloser.Close(); err != nil {
				slog.Warn("Failed to close log file", "error", err)
			}
		}
	},
	SilenceUsage: true,
}

func Execute(config *config.Config) error {
	cfg = config
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(transferCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(registerCmd)

	rootCmd.PersistentFlags().StringP("bucket", "b", "", "Override source bucket name from config")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
}

func getSourceBucket(cmd *cobra.Command) string {
	bucket, _ := cmd.Flags().GetString("bucket")
	if bucket != "" {
		return bucket
	}
	return cfg.SourceBucket
}

// effectiveConfig returns a copy of cfg with the --bucket override applied.
func effectiveConfig(cmd *cobra.Command) *config.Config {
	c := *cfg
	c.SourceBucket = getSourceBucket(cmd)
	return &c
}

func isVerbose(cmd *cobra.Command) bool {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return verbose
}
