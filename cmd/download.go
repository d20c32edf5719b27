package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"s3transfer/internal/download"
	"s3transfer/internal/models"
	"s3transfer/internal/s3client"
	"s3transfer/pkg/utils"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the files recorded for a lane and hour",
	Long: `Download every file recorded in MongoDB for a lane within one hour of a date.

Files are written to DOWNLOAD_PATH/<lane>/<YYYY>/<MM>/<DD>/<HH>/<name> and
each record is marked downloaded or failed. Files already present are
fetched again and overwritten.`,
	Example: `  # Download lane L1, 14:00-14:59 on 2024-03-05
  s3transfer download --lane L1 --hour 14 --date 2024-03-05

  # Use a full timestamp for the date
  s3transfer download --lane L1 --hour 0 --date 2024-03-05T00:00:00Z

  # Download from a different bucket
  s3transfer download --lane L1 --hour 14 --date 2024-03-05 --bucket my-other-bucket`,
	Run: func(cmd *cobra.Command, args []string) {
		runDownload(cmd)
	},
}

func runDownload(cmd *cobra.Command) {
	req := models.DownloadRequest{}
	req.LaneID, _ = cmd.Flags().GetString("lane")
	req.Date, _ = cmd.Flags().GetString("date")
	if cmd.Flags().Changed("hour") {
		hour, _ := cmd.Flags().GetInt("hour")
		req.Hour = &hour
	}

	query, err := req.Validate()
	if err != nil {
		utils.PrintError(err, "download")
		return
	}

	c := effectiveConfig(cmd)
	if err := c.ValidateServe(); err != nil {
		utils.PrintError(err, "download")
		return
	}

	timeout, _ := cmd.Flags().GetInt("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	client, err := s3client.New(ctx, c)
	if err != nil {
		utils.PrintError(err, "download")
		return
	}
	records, err := connectMetadata(ctx, c)
	if err != nil {
		utils.PrintError(err, "download")
		return
	}
	defer closeMetadata(records)

	if isVerbose(cmd) {
		cmd.Printf("Starting download operation...\n")
		cmd.Printf("  Lane: %s\n", query.LaneID)
		cmd.Printf("  Hour: %02d on %s\n", query.Hour, query.Date.Format("2006-01-02"))
		cmd.Printf("  Destination: %s\n", c.DownloadPath)
	}

	result, err := download.New(client, records, c.SourceBucket, c.DownloadPath, nil).Download(ctx, query)
	if err != nil {
		utils.PrintError(err, "download")
		return
	}

	if err := utils.PrintJSON(result); err != nil {
		utils.PrintError(err, "download")
		return
	}

	if isVerbose(cmd) {
		cmd.Printf("Download completed: %d successful, %d failed\n", result.SuccessCount, result.FailureCount)
	}
}

func init() {
	downloadCmd.Flags().StringP("lane", "l", "", "Lane identifier")
	downloadCmd.Flags().Int("hour", 0, "Hour of day, 0-23")
	downloadCmd.Flags().StringP("date", "d", "", "Date as YYYY-MM-DD or an ISO-8601 timestamp")
	downloadCmd.Flags().Int("timeout", 3600, "Timeout in seconds for the operation (default: 1 hour)")
}
