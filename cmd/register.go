package cmd

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"s3transfer/internal/apperr"
	"s3transfer/internal/models"
	"s3transfer/internal/s3client"
	"s3transfer/pkg/utils"
)

// objectLister and recordSaver are the slices of the S3 and Mongo clients
// register needs.
type objectLister interface {
	ListObjects(ctx context.Context, bucket, prefix string) ([]models.ObjectInfo, error)
}

type recordSaver interface {
	Save(ctx context.Context, record models.FileRecord) error
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Record listed objects as pending files for a lane",
	Long: `List the source bucket and store a pending file record for every object found.

The record timestamp is the object's last-modified time, which places it in
the hour window later used by download.`,
	Example: `  # Register everything under a lane prefix
  s3transfer register --lane L1 --prefix "lanes/L1/"

  # Register a whole bucket for a lane
  s3transfer register --lane L2 --bucket lane-two-bucket`,
	Run: func(cmd *cobra.Command, args []string) {
		runRegister(cmd)
	},
}

func runRegister(cmd *cobra.Command) {
	lane, _ := cmd.Flags().GetString("lane")
	prefix, _ := cmd.Flags().GetString("prefix")

	if strings.TrimSpace(lane) == "" {
		utils.PrintError(apperr.NewValidationError("lane", "is required"), "register")
		return
	}

	c := effectiveConfig(cmd)
	if err := c.ValidateServe(); err != nil {
		utils.PrintError(err, "register")
		return
	}

	timeout, _ := cmd.Flags().GetInt("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	client, err := s3client.New(ctx, c)
	if err != nil {
		utils.PrintError(err, "register")
		return
	}
	records, err := connectMetadata(ctx, c)
	if err != nil {
		utils.PrintError(err, "register")
		return
	}
	defer closeMetadata(records)

	result, err := registerObjects(ctx, client, records, c.SourceBucket, prefix, lane)
	if err != nil {
		utils.PrintError(err, "register")
		return
	}

	if err := utils.PrintJSON(result); err != nil {
		utils.PrintError(err, "register")
		return
	}

	if isVerbose(cmd) {
		cmd.Printf("Registered %d of %d objects\n", result.SuccessCount, result.Total)
	}
}

func registerObjects(ctx context.Context, objects objectLister, records recordSaver, bucket, prefix, lane string) (*models.RegisterResult, error) {
	listed, err := objects.ListObjects(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}

	result := models.NewRegisterResult(lane, bucket)
	for _, object := range listed {
		if strings.HasSuffix(object.Key, "/") {
			slog.Debug("Skipping folder marker", "key", object.Key)
			continue
		}
		if err := records.Save(ctx, models.PendingRecord(lane, object)); err != nil {
			slog.Error("Error registering object", "key", object.Key, "error", err)
			result.AddFailure(object.Key)
			continue
		}
		result.AddSuccess(object.Key)
	}
	return result, nil
}

func init() {
	registerCmd.Flags().StringP("lane", "l", "", "Lane identifier to assign")
	registerCmd.Flags().StringP("prefix", "p", "", "Only register objects under this prefix")
	registerCmd.Flags().Int("timeout", 600, "Timeout in seconds for the operation (default: 10 minutes)")
}
