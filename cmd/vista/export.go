package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperengineering/vista"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export workspace data to a JSON file",
	Long: `Export settings, datasets and workspace records to a JSON document.

Writes to stdout when --output is omitted.

Examples:
  vista export -o backup.json
  vista export --workspace team-a > team-a.json`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import workspace data from a JSON file",
	Long: `Import a JSON document produced by 'vista export'.

Merge strategies for entries that already exist:
  skip     Keep the existing entry
  replace  Overwrite it with the imported one
  merge    Keep existing values, fill gaps from the import (default)

Examples:
  vista import -i backup.json --dry-run
  vista import -i backup.json --merge-strategy replace`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

var (
	exportOutputPath    string
	importInputPath     string
	importMergeStrategy string
	importDryRun        bool
)

func init() {
	exportCmd.Flags().StringVarP(&exportOutputPath, "output", "o", "", "Output file path (default: stdout)")

	importCmd.Flags().StringVarP(&importInputPath, "input", "i", "", "Input file path (required)")
	importCmd.Flags().StringVar(&importMergeStrategy, "merge-strategy", "merge", "Merge strategy: skip, replace, merge")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Preview import without making changes")
	_ = importCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

// ExportResult for JSON output.
type ExportResult struct {
	Workspace string `json:"workspace"`
	FilePath  string `json:"file_path"`
	FileSize  int64  `json:"file_size"`
	Duration  string `json:"duration"`
}

func runExport(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := cmd.Context()
	if exportOutputPath == "" {
		return client.Export(ctx, cmd.OutOrStdout())
	}

	start := time.Now()
	size, err := exportToFile(client, cmd, exportOutputPath)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	duration := time.Since(start)

	result := ExportResult{
		Workspace: client.Config().Workspace,
		FilePath:  exportOutputPath,
		FileSize:  size,
		Duration:  duration.Round(time.Millisecond).String(),
	}
	if outputJSON {
		return outputAsJSON(cmd, result)
	}

	var summary strings.Builder
	summary.WriteString(fmt.Sprintf("Workspace: %s\n", result.Workspace))
	summary.WriteString(fmt.Sprintf("File size: %s\n", formatBytes(size)))
	summary.WriteString(fmt.Sprintf("Duration:  %s\n", result.Duration))
	summary.WriteString(fmt.Sprintf("Output:    %s", exportOutputPath))

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderPanel("Export Summary", summary.String()))
	printSuccess(out, "Export complete")
	return nil
}

func exportToFile(client *vista.Client, cmd *cobra.Command, path string) (int64, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create output file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := client.Export(cmd.Context(), w); err != nil {
		f.Close()
		return 0, err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, err
	}

	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// ImportResultOutput for JSON output.
type ImportResultOutput struct {
	Workspace  string   `json:"workspace"`
	InputFile  string   `json:"input_file"`
	Strategy   string   `json:"merge_strategy"`
	DryRun     bool     `json:"dry_run"`
	Total      int      `json:"total"`
	Created    int      `json:"created"`
	Updated    int      `json:"updated"`
	Skipped    int      `json:"skipped"`
	ErrorCount int      `json:"error_count"`
	Errors     []string `json:"errors,omitempty"`
	Duration   string   `json:"duration"`
}

func runImport(cmd *cobra.Command, args []string) error {
	strategy, err := vista.ParseMergeStrategy(strings.ToLower(importMergeStrategy))
	if err != nil {
		return err
	}

	f, err := os.Open(importInputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input file not found: %s", importInputPath)
		}
		return err
	}
	defer f.Close()

	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	out := cmd.OutOrStdout()
	if !outputJSON {
		verb := "Importing"
		if importDryRun {
			verb = "Previewing import"
		}
		printInfo(out, "%s into workspace '%s' from %s...", verb, client.Config().Workspace, importInputPath)
		fmt.Fprintf(out, "  Strategy: %s\n", strategy)
	}

	start := time.Now()
	result, err := client.Import(cmd.Context(), bufio.NewReader(f), strategy, importDryRun)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	duration := time.Since(start)

	if outputJSON {
		return outputAsJSON(cmd, ImportResultOutput{
			Workspace:  client.Config().Workspace,
			InputFile:  importInputPath,
			Strategy:   string(strategy),
			DryRun:     importDryRun,
			Total:      result.Total,
			Created:    result.Created,
			Updated:    result.Updated,
			Skipped:    result.Skipped,
			ErrorCount: len(result.Errors),
			Errors:     result.Errors,
			Duration:   duration.Round(time.Millisecond).String(),
		})
	}

	printImportSummary(out, result, importDryRun)
	return nil
}

func printImportSummary(out io.Writer, result *vista.ImportResult, dryRun bool) {
	prefix := ""
	if dryRun {
		prefix = "Would be "
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Total entries: %d\n", result.Total)
	fmt.Fprintf(out, "  %sCreated: %d\n", prefix, result.Created)
	fmt.Fprintf(out, "  %sUpdated: %d\n", prefix, result.Updated)
	fmt.Fprintf(out, "  Skipped: %d\n", result.Skipped)
	fmt.Fprintf(out, "  Errors: %d\n", len(result.Errors))

	if len(result.Errors) > 0 {
		fmt.Fprintln(out)
		printWarning(out, "Errors encountered:")
		const maxErrors = 10
		for i, e := range result.Errors {
			if i >= maxErrors {
				fmt.Fprintf(out, "  ... and %d more errors\n", len(result.Errors)-maxErrors)
				break
			}
			fmt.Fprintf(out, "  - %s\n", e)
		}
	}

	fmt.Fprintln(out)
	if dryRun {
		printMuted(out, "Dry-run complete. No changes made.")
	} else {
		printSuccess(out, "Import complete.")
	}
}

// formatBytes formats a byte count for humans.
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
