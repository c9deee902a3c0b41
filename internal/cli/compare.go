package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/drawrev/drawrev/pkg/pipeline"
	"github.com/drawrev/drawrev/pkg/report"
)

// Output formats for the compare command.
const (
	formatMarkdown = "md"
	formatJSON     = "json"
	formatDOT      = "dot"
	formatSVG      = "svg"
)

var validCompareFormats = map[string]bool{
	formatMarkdown: true,
	formatJSON:     true,
	formatDOT:      true,
	formatSVG:      true,
}

// compareCommand creates the compare command for diffing two revisions.
func (c *CLI) compareCommand() *cobra.Command {
	var (
		format           string
		output           string
		noCache          bool
		includeUnchanged bool
		interactive      bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "compare [old.json] [new.json]",
		Short: "Compare two document revisions",
		Long: `Compare two revisions of a drawing document.

Records are matched by content, never by handle: exact fingerprint matches
are paired first, then leftover records of the same kind and layer are
paired by geometric similarity. The result classifies every record as
added, removed, modified, or unchanged and rates the revision as a whole
(none, minor, moderate, major).

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validCompareFormats[format] {
				return fmt.Errorf("invalid format: %q (must be one of: md, json, dot, svg)", format)
			}
			return c.runCompare(cmd.Context(), args[0], args[1], opts, format, output, noCache, includeUnchanged, interactive)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().StringVarP(&format, "format", "f", formatMarkdown, "report format: md (default), json, dot, svg")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "bypass cached results")
	cmd.Flags().BoolVar(&includeUnchanged, "unchanged", false, "include unchanged records in dot/svg/interactive output")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse the diff entries in an interactive list")
	cmd.Flags().Float64Var(&opts.Tolerance, "tolerance", 0, "geometric comparison tolerance (default 1e-6)")
	cmd.Flags().Float64Var(&opts.SimilarityThreshold, "threshold", 0, "similarity threshold for pairing modified records (default 0.6)")
	cmd.Flags().IntVar(&opts.MaxRecords, "max-records", 0, "combined record budget for a comparison")

	return cmd
}

// runCompare executes the comparison and writes the report, or hands the
// result to the interactive browser.
func (c *CLI) runCompare(ctx context.Context, pathA, pathB string, opts pipeline.Options, format, output string, noCache, includeUnchanged, interactive bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Comparing %s against %s...", baseName(pathB), baseName(pathA)))
	spinner.Start()

	result, err := runner.CompareFiles(ctx, pathA, pathB, opts)
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			return ctx.Err()
		}
		spinner.StopWithError("Comparison failed")
		return err
	}
	spinner.Stop()

	diff := result.Diff
	printSuccess("Compared %s → %s: %s revision", baseName(pathA), baseName(pathB), diff.Level)
	printRecordStats(result.Stats.RecordsA, result.Stats.RecordsB, result.CacheInfo.DiffHit)
	printDetail("added %d · removed %d · modified %d · unchanged %d",
		diff.Added, diff.Removed, diff.Modified, diff.Unchanged)

	if interactive {
		return c.browseDiff(diff, includeUnchanged)
	}

	var data []byte
	switch format {
	case formatMarkdown:
		data = []byte(report.Diff(diff, baseName(pathA), baseName(pathB)))
	case formatJSON:
		data, err = report.DiffJSON(diff)
	case formatDOT:
		data = []byte(report.ToDOT(diff, includeUnchanged))
	case formatSVG:
		data, err = report.RenderSVG(report.ToDOT(diff, includeUnchanged))
	}
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if output == "" {
		fmt.Println(strings.TrimRight(string(data), "\n"))
		return nil
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	printFile(output)
	return nil
}

// baseName returns the last path element, for compact display.
func baseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
