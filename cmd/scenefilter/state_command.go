package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scenefilter/internal/api"
)

func newStateCommand(ctx *commandContext) *cobra.Command {
	var movieID string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show the effective filter state",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := ctx.ensureDeps()
			if err != nil {
				return err
			}
			defer ctx.close()

			resp, err := api.StatePayload(cmd.Context(), deps, movieID)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, resp)
			}

			out := cmd.OutOrStdout()
			state := resp.State
			fmt.Fprintf(out, "Filter enabled:    %s\n", yesNo(state.Enabled))
			fmt.Fprintf(out, "Safety mode:       %s\n", state.SafeMode)
			fmt.Fprintf(out, "Auto threshold:    %d\n", resp.Threshold)
			fmt.Fprintf(out, "Adaptive mode:     %s\n", yesNo(state.AdaptiveMode))
			fmt.Fprintf(out, "Audio-only mode:   %s\n", yesNo(state.AudioOnlyMode))
			fmt.Fprintf(out, "Debug markers:     %s\n", yesNo(state.DebugMode))
			fmt.Fprintf(out, "Community sync:    %s\n", yesNo(state.CommunitySync))
			fmt.Fprintf(out, "Catalog source:    %s\n", resp.Source)
			if movieID != "" {
				fmt.Fprintf(out, "Segments:          %d merged, %d auto-applied\n",
					len(resp.Segments), len(resp.AutoSegments))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&movieID, "movie", "m", "", "Movie identifier for segment counts")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of text")
	return cmd
}

func newCommunityCommand(ctx *commandContext) *cobra.Command {
	communityCmd := &cobra.Command{
		Use:   "community",
		Short: "Community segment database operations",
	}

	var movieID string
	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Invalidate the community cache and reload the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := ctx.ensureDeps()
			if err != nil {
				return err
			}
			defer ctx.close()

			source, err := api.RefreshCommunity(cmd.Context(), deps, movieID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Catalog refreshed, source: %s\n", source)
			return nil
		},
	}
	refreshCmd.Flags().StringVarP(&movieID, "movie", "m", "", "Movie identifier to warm the cache for")
	communityCmd.AddCommand(refreshCmd)

	return communityCmd
}
