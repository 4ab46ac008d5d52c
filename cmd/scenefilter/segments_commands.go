package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scenefilter/internal/api"
	"scenefilter/internal/effects"
	"scenefilter/internal/segment"
)

func newSegmentsCommand(ctx *commandContext) *cobra.Command {
	segmentsCmd := &cobra.Command{
		Use:   "segments",
		Short: "Inspect and edit segment annotations",
	}

	segmentsCmd.AddCommand(newSegmentsListCommand(ctx))
	segmentsCmd.AddCommand(newSegmentsAddCommand(ctx))
	segmentsCmd.AddCommand(newSegmentsRemoveCommand(ctx))

	return segmentsCmd
}

func newSegmentsListCommand(ctx *commandContext) *cobra.Command {
	var movieID string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List merged segments for a movie",
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
			if len(resp.Segments) == 0 {
				fmt.Fprintf(out, "No segments for %s (source: %s)\n", movieID, resp.Source)
				return nil
			}

			autoKeys := make(map[string]bool, len(resp.AutoSegments))
			for _, scored := range resp.AutoSegments {
				autoKeys[scored.SegmentID] = true
			}

			actions := resolveActions(deps)
			opts := effects.Options{
				AudioOnlyMode: deps.Config.Filter.AudioOnlyMode,
				AdaptiveMode:  deps.Config.Filter.AdaptiveMode,
			}

			rows := make([][]string, 0, len(resp.Segments))
			for i, scored := range resp.Segments {
				rows = append(rows, []string{
					strconv.Itoa(i),
					formatTimecode(scored.Start),
					formatTimecode(scored.End),
					string(scored.Type),
					string(scored.SourceType),
					strconv.Itoa(scored.ConfidenceScore),
					strconv.Itoa(scored.EffectiveConfidence),
					string(effects.ForSegment(scored.Segment, actions, opts)),
					yesNo(autoKeys[scored.SegmentID]),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Start", "End", "Type", "Tier", "Conf", "Effective", "Action", "Auto"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "Source: %s  Threshold: %d\n", resp.Source, resp.Threshold)
			return nil
		},
	}

	cmd.Flags().StringVarP(&movieID, "movie", "m", "", "Movie identifier (e.g. tt0133093)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	_ = cmd.MarkFlagRequired("movie")
	return cmd
}

func newSegmentsAddCommand(ctx *commandContext) *cobra.Command {
	var movieID string
	var start, end float64
	var segType string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a manual segment annotation",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := ctx.ensureDeps()
			if err != nil {
				return err
			}
			defer ctx.close()

			resp, err := api.AddUserSegment(cmd.Context(), deps, movieID, segment.Raw{
				Start: start,
				End:   end,
				Type:  segType,
			})
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s segment %s - %s to %s (%d merged segments)\n",
				segType, formatTimecode(start), formatTimecode(end), movieID, len(resp.Segments))
			return nil
		},
	}

	cmd.Flags().StringVarP(&movieID, "movie", "m", "", "Movie identifier")
	cmd.Flags().Float64Var(&start, "start", 0, "Segment start in seconds")
	cmd.Flags().Float64Var(&end, "end", 0, "Segment end in seconds")
	cmd.Flags().StringVarP(&segType, "type", "t", "", "Segment category (sexual or nudity)")
	_ = cmd.MarkFlagRequired("movie")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of text")
	return cmd
}

func newSegmentsRemoveCommand(ctx *commandContext) *cobra.Command {
	var movieID string
	var index int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a manual segment annotation by index",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := ctx.ensureDeps()
			if err != nil {
				return err
			}
			defer ctx.close()

			resp, err := api.RemoveUserSegment(cmd.Context(), deps, movieID, index)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed segment %d from %s (%d merged segments remain)\n",
				index, movieID, len(resp.Segments))
			return nil
		},
	}

	cmd.Flags().StringVarP(&movieID, "movie", "m", "", "Movie identifier")
	cmd.Flags().IntVarP(&index, "index", "i", -1, "Index within the manual annotations")
	_ = cmd.MarkFlagRequired("movie")
	_ = cmd.MarkFlagRequired("index")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of text")
	return cmd
}

// resolveActions maps the configured per-category actions, falling back to
// the defaults for categories the config leaves out.
func resolveActions(deps api.Deps) map[segment.Type]effects.Action {
	actions := effects.DefaultActions()
	for category, raw := range deps.Config.Filter.CategoryActions {
		segType, ok := segment.ParseType(category)
		if !ok {
			continue
		}
		if action, ok := effects.ParseAction(raw); ok {
			actions[segType] = action
		}
	}
	return actions
}

func formatTimecode(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	millis := int((seconds - float64(total)) * 1000)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d.%03d", hours, minutes, secs, millis)
	}
	return fmt.Sprintf("%d:%02d.%03d", minutes, secs, millis)
}
