package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/takesort/internal/core/domain"
	"github.com/ewilliams-labs/takesort/internal/core/services"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var files []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "analyze [folder]",
		Short: "Fingerprint a folder and list clusters of similar recordings",
		Long: "Analyze lists the audio files of a folder (or the files given with --file),\n" +
			"groups similar recordings and prints the clusters for review. Use --json\n" +
			"to save the result for the organize command.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := services.AnalyzeRequest{Files: files}
			if len(args) == 1 {
				req.FolderPath = args[0]
			}
			if req.FolderPath == "" && len(req.Files) == 0 {
				return fmt.Errorf("analyze: a folder or at least one --file is required")
			}

			return ctx.withService(cmd, func(svc *services.Orchestrator) error {
				result, err := svc.Analyze(cmd.Context(), req)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, result)
				}
				printAnalysis(cmd.OutOrStdout(), req, result)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "Analyze these file paths instead of listing a folder")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Write the analysis result as JSON")
	return cmd
}

func printAnalysis(w io.Writer, req services.AnalyzeRequest, result domain.AnalysisResult) {
	source := req.FolderPath
	if source == "" {
		source = fmt.Sprintf("%d selected files", len(req.Files))
	}
	if result.Message != "" {
		fmt.Fprintf(w, "%s: %s\n", source, result.Message)
		return
	}

	stats := result.Statistics
	fmt.Fprintf(w, "Analyzed %d of %d files in %s: %d clusters (threshold %.2f)\n",
		stats.AnalyzedFiles, stats.TotalFiles, source, stats.ClustersFound, result.Threshold)

	for i, c := range result.Clusters {
		fmt.Fprintf(w, "\nCluster %d: %s\n", i+1, c.Name)
		fmt.Fprintf(w, "ID: %s  Category: %s  Confidence: %s  Avg duration: %s\n",
			c.ID, c.SuggestedCategory, formatPercent(c.Confidence), formatSeconds(c.AverageDuration))

		rows := make([][]string, 0, len(c.Files))
		for j, f := range c.Files {
			rows = append(rows, []string{
				strconv.Itoa(j + 1),
				f.FilePath,
				formatBytes(f.FileSize),
				formatSeconds(f.Duration),
				f.ModifiedDate.Format("2006-01-02 15:04"),
			})
		}
		fmt.Fprintln(w, renderTable(
			[]string{"#", "File", "Size", "Est. Duration", "Modified"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft},
		))
	}

	if len(result.Errors) > 0 {
		rows := make([][]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			rows = append(rows, []string{e.Path, e.Message})
		}
		fmt.Fprintf(w, "\nSkipped %d files:\n", len(result.Errors))
		fmt.Fprintln(w, renderTable([]string{"File", "Error"}, rows, nil))
	}
}
