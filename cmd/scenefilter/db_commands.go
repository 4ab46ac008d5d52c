package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"scenefilter/internal/api"
	"scenefilter/internal/fileutil"
	"scenefilter/internal/reconcile"
	"scenefilter/internal/store"
)

func newDBCommand(ctx *commandContext) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Export and import the local segment database",
	}

	dbCmd.AddCommand(newDBExportCommand(ctx))
	dbCmd.AddCommand(newDBImportCommand(ctx))

	return dbCmd
}

func newDBExportCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the local tiers as a JSON document",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := ctx.ensureDeps()
			if err != nil {
				return err
			}
			defer ctx.close()

			payload, err := api.ExportLocalDB(cmd.Context(), deps)
			if err != nil {
				return err
			}

			if strings.TrimSpace(outputPath) == "" {
				return writeJSON(cmd, payload)
			}

			encoded, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return fmt.Errorf("encode export document: %w", err)
			}
			if err := fileutil.WriteFileAtomic(outputPath, append(encoded, '\n'), 0o644); err != nil {
				return fmt.Errorf("write export document: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d movies to %s\n",
				len(payload.UserSegmentsByMovieID)+len(payload.LocalAISegmentsByMovieID), outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination file (stdout when omitted)")
	return cmd
}

func newDBImportCommand(ctx *commandContext) *cobra.Command {
	var policyFlag string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Merge an exported JSON document into the local tiers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, ok := reconcile.ParsePolicy(policyFlag)
			if !ok {
				return fmt.Errorf("unknown merge policy %q (expected prefer-existing, prefer-imported, or keep-both)", policyFlag)
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read import document: %w", err)
			}
			var payload store.ImportPayload
			if err := json.Unmarshal(data, &payload); err != nil {
				return fmt.Errorf("parse import document: %w", err)
			}

			deps, err := ctx.ensureDeps()
			if err != nil {
				return err
			}
			defer ctx.close()

			resp, err := api.ImportLocalDB(cmd.Context(), deps, payload, policy)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, resp)
			}

			summary := resp.Summary
			fmt.Fprintf(cmd.OutOrStdout(),
				"Imported with policy %s: %d movies, %d added, %d replaced, %d skipped\n",
				summary.Policy, summary.Movies, summary.Added, summary.Replaced, summary.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&policyFlag, "policy", "p", string(reconcile.PreferExisting),
		"Merge policy: prefer-existing, prefer-imported, or keep-both")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of text")
	return cmd
}
