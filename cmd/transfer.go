package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"s3transfer/internal/models"
	"s3transfer/internal/s3client"
	"s3transfer/internal/transfer"
	"s3transfer/pkg/utils"
)

var transferCmd = &cobra.Command{
	Use:   "transfer [keys...]",
	Short: "Copy objects from the source bucket to the destination bucket",
	Long: `Copy objects from SOURCE_BUCKET to DESTINATION_BUCKET with server-side copy.

Objects are selected by explicit keys, by prefix, or, when neither is given,
the whole source bucket. Explicit keys take precedence over --prefix.
Each key is copied independently; a failed key is reported and the rest
continue.`,
	Example: `  # Copy specific objects
  s3transfer transfer data/a.csv data/b.csv

  # Copy everything under a prefix
  s3transfer transfer --prefix "lanes/L1/"

  # Copy the whole bucket without prompting
  s3transfer transfer --confirm

  # Copy from a different source bucket
  s3transfer transfer --prefix logs/ --bucket my-other-bucket`,
	Run: func(cmd *cobra.Command, args []string) {
		runTransfer(cmd, args)
	},
}

func runTransfer(cmd *cobra.Command, args []string) {
	prefix, _ := cmd.Flags().GetString("prefix")
	confirm, _ := cmd.Flags().GetBool("confirm")

	c := effectiveConfig(cmd)
	if err := c.ValidateTransfer(); err != nil {
		utils.PrintError(err, "transfer")
		return
	}

	sel := models.TransferRequest{FileKeys: args, Prefix: prefix}.Selection()

	if !confirm {
		fmt.Printf("Transfer operation summary:\n")
		fmt.Printf("  Source: %s\n", c.SourceBucket)
		fmt.Printf("  Destination: %s\n", c.DestinationBucket)
		fmt.Printf("  Selection: %s\n", sel)

		fmt.Print("Continue with transfer? (y/N): ")
		var response string
		fmt.Scanln(&response)
		if !slices.Contains([]string{"y", "yes"}, strings.ToLower(response)) {
			fmt.Println("Transfer cancelled.")
			return
		}
	}

	timeout, _ := cmd.Flags().GetInt("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	client, err := s3client.New(ctx, c)
	if err != nil {
		utils.PrintError(err, "transfer")
		return
	}

	if isVerbose(cmd) {
		cmd.Printf("Starting transfer operation...\n")
		cmd.Printf("  Selection: %s\n", sel)
	}

	result, err := transfer.New(client, c.SourceBucket, c.DestinationBucket, nil).Transfer(ctx, sel)
	if err != nil {
		utils.PrintError(err, "transfer")
		return
	}

	if err := utils.PrintJSON(result); err != nil {
		utils.PrintError(err, "transfer")
		return
	}

	if isVerbose(cmd) {
		cmd.Printf("Transfer completed: %d successful, %d failed\n", result.SuccessCount, result.FailureCount)
	}
}

func init() {
	transferCmd.Flags().StringP("prefix", "p", "", "Copy every object under this prefix")
	transferCmd.Flags().Bool("confirm", false, "Skip confirmation prompt")
	transferCmd.Flags().Int("timeout", 3600, "Timeout in seconds for the operation (default: 1 hour)")
}
