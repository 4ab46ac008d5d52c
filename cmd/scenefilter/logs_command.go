package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"scenefilter/internal/logging"
	"scenefilter/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon log output",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := logging.DaemonLogPath(cfg)
			if path == "" {
				return fmt.Errorf("no log directory configured; set paths.log_dir")
			}

			out := cmd.OutOrStdout()
			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines})
			if err != nil {
				return err
			}
			for _, line := range result.Lines {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}

			offset := result.Offset
			for {
				result, err = logs.Tail(cmd.Context(), path, logs.TailOptions{
					Offset: offset,
					Follow: true,
					Wait:   2 * time.Second,
				})
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				for _, line := range result.Lines {
					fmt.Fprintln(out, line)
				}
				offset = result.Offset
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new log lines")
	cmd.Flags().IntVarP(&lines, "lines", "n", 40, "Number of trailing lines to show")
	return cmd
}
