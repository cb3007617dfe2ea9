package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lembretes/internal/storage"
)

var binName string

var binCmd = &cobra.Command{
	Use:   "bin",
	Short: "Manage the JSONBin document",
}

// binCreateCmd creates an empty private bin and prints its id, to be set as
// JSONBIN_BIN_ID.
var binCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new private bin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := &http.Client{Timeout: cfg.JSONBin.TimeoutDuration()}
		id, err := storage.CreateBin(cmd.Context(), client, cfg.JSONBin.BaseURL, cfg.JSONBin.MasterKey, binName, nil)
		if err != nil {
			return fmt.Errorf("failed to create bin: %w", err)
		}
		logger.Info("bin created", zap.String("bin_id", id))
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

func init() {
	binCreateCmd.Flags().StringVar(&binName, "name", "lembretes", "Bin name")
	binCmd.AddCommand(binCreateCmd)
}
