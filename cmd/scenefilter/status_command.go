package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"scenefilter/internal/api"
)

const statusRequestTimeout = 5 * time.Second

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			status, err := fetchDaemonStatus(cfg.Paths.APIBind)
			if err != nil {
				return fmt.Errorf("daemon not reachable at %s (start it with `scenefilterd`): %w",
					cfg.Paths.APIBind, err)
			}
			if jsonOut {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Running:          %s\n", yesNo(status.Running))
			fmt.Fprintf(out, "PID:              %d\n", status.PID)
			fmt.Fprintf(out, "Database:         %s\n", status.DatabasePath)
			fmt.Fprintf(out, "Lock file:        %s\n", status.LockFilePath)
			fmt.Fprintf(out, "Catalog source:   %s\n", status.CatalogSource)
			fmt.Fprintf(out, "Active contexts:  %d\n", status.ActiveContexts)
			fmt.Fprintf(out, "Active detectors: %d\n", status.ActiveDetector)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of text")
	return cmd
}

func fetchDaemonStatus(bind string) (api.DaemonStatus, error) {
	client := &http.Client{Timeout: statusRequestTimeout}
	resp, err := client.Get("http://" + bind + "/api/status")
	if err != nil {
		return api.DaemonStatus{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return api.DaemonStatus{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var status api.DaemonStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return api.DaemonStatus{}, fmt.Errorf("decode status: %w", err)
	}
	return status, nil
}
