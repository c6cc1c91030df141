package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/takesort/internal/core/domain"
	"github.com/ewilliams-labs/takesort/internal/core/services"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var input string
	var clusterIDs []string
	var all bool
	var dest string
	var dryRun bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Move reviewed clusters into dated folders",
		Long: "Organize reads an analysis saved with `takesort analyze --json` and moves\n" +
			"the selected clusters into their own folders. Use --dry-run to preview.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			analysis, err := readAnalysis(cmd, input)
			if err != nil {
				return err
			}
			clusters, err := selectClusters(analysis.Clusters, clusterIDs, all)
			if err != nil {
				return err
			}

			return ctx.withService(cmd, func(svc *services.Orchestrator) error {
				results := make([]domain.OrganizeResult, 0, len(clusters))
				failed := 0
				for _, c := range clusters {
					res, err := svc.OrganizeCluster(cmd.Context(), services.OrganizeRequest{
						ClusterID:       c.ID,
						Files:           c.Files,
						NameHint:        c.Name,
						CategoryHint:    c.SuggestedCategory,
						ConfidenceHint:  c.Confidence,
						DestinationPath: dest,
						DryRun:          dryRun,
					})
					if err != nil {
						return fmt.Errorf("organize cluster %s: %w", c.ID, err)
					}
					failed += res.Summary.Failed
					results = append(results, res)
					if !jsonOutput {
						printOrganize(cmd.OutOrStdout(), res)
					}
				}
				if jsonOutput {
					if err := writeJSON(cmd, results); err != nil {
						return err
					}
				}
				if failed > 0 {
					return fmt.Errorf("organize: %d files could not be moved", failed)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "Analysis JSON file, or - for stdin")
	cmd.Flags().StringSliceVar(&clusterIDs, "cluster", nil, "Cluster IDs to organize")
	cmd.Flags().BoolVar(&all, "all", false, "Organize every cluster in the analysis")
	cmd.Flags().StringVar(&dest, "dest", "", "Parent folder for new folders (default: folder of each cluster's first file)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the planned folder and moves without changing storage")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Write organize results as JSON")
	return cmd
}

func readAnalysis(cmd *cobra.Command, input string) (domain.AnalysisResult, error) {
	var r io.Reader
	if input == "" || input == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(input)
		if err != nil {
			return domain.AnalysisResult{}, fmt.Errorf("read analysis: %w", err)
		}
		defer f.Close()
		r = f
	}

	var result domain.AnalysisResult
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("read analysis: %w", err)
	}
	return result, nil
}

// selectClusters picks clusters by ID. Without IDs a lone cluster is
// selected implicitly; several require --all or --cluster.
func selectClusters(clusters []domain.AudioCluster, ids []string, all bool) ([]domain.AudioCluster, error) {
	if len(clusters) == 0 {
		return nil, errors.New("organize: the analysis has no clusters")
	}
	if all {
		return clusters, nil
	}
	if len(ids) == 0 {
		if len(clusters) == 1 {
			return clusters, nil
		}
		known := make([]string, 0, len(clusters))
		for _, c := range clusters {
			known = append(known, c.ID)
		}
		return nil, fmt.Errorf("organize: %d clusters found, choose with --cluster or --all (%s)", len(clusters), strings.Join(known, ", "))
	}

	byID := make(map[string]domain.AudioCluster, len(clusters))
	for _, c := range clusters {
		byID[c.ID] = c
	}
	selected := make([]domain.AudioCluster, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[strings.TrimSpace(id)]
		if !ok {
			return nil, fmt.Errorf("organize: unknown cluster %q", id)
		}
		selected = append(selected, c)
	}
	return selected, nil
}

func printOrganize(w io.Writer, res domain.OrganizeResult) {
	state := "existing"
	switch {
	case res.DryRun:
		state = "planned"
	case res.FolderCreated:
		state = "created"
	}
	fmt.Fprintf(w, "\nFolder: %s (%s)\n", res.FolderPath, state)

	rows := make([][]string, 0, len(res.Results))
	for _, o := range res.Results {
		rows = append(rows, []string{o.SourcePath, o.TargetPath, string(o.Status), o.Error})
	}
	fmt.Fprintln(w, renderTable([]string{"Source", "Target", "Status", "Error"}, rows, nil))
	if !res.DryRun {
		fmt.Fprintf(w, "Moved %d, failed %d\n", res.Summary.Moved, res.Summary.Failed)
	}
}
