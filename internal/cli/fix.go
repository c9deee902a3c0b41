package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/drawrev/drawrev/pkg/docio"
	"github.com/drawrev/drawrev/pkg/fix"
	"github.com/drawrev/drawrev/pkg/pipeline"
	"github.com/drawrev/drawrev/pkg/report"
)

// fixCommand creates the fix command for repairing a document.
func (c *CLI) fixCommand() *cobra.Command {
	var (
		output     string
		backupPath string
		planPath   string
		noCache    bool
		disable    []string
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "fix [document.json]",
		Short: "Repair common drafting defects in a document",
		Long: `Build a corrective plan for a document and apply it.

The plan removes duplicate records, normalizes layer colors and linetypes
to the drafting standard, clamps text heights to standard values, and
organizes text records onto the policy's text layer. Application is
all-or-nothing: if any action fails its post-condition check, the
document is left untouched and the failing rules are reported.

With --dry-run the plan is printed but never applied. Individual rules
can be switched off with --disable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Disable = disable
			return c.runFix(cmd.Context(), args[0], opts, output, backupPath, planPath, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the fixed document here (default: overwrite input)")
	cmd.Flags().StringVar(&backupPath, "backup", "", "write the pre-fix document to this path")
	cmd.Flags().StringVar(&planPath, "plan", "", "write the plan as JSON to this path")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "bypass cached plans")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "build and print the plan without applying it")
	cmd.Flags().StringVar(&opts.Standard, "standard", "", "drafting standard to apply (default: iso)")
	cmd.Flags().StringVar(&opts.PolicyFile, "policy", "", "TOML policy file overriding --standard")
	cmd.Flags().StringSliceVar(&disable, "disable", nil, "rule ids to switch off (repeatable)")
	cmd.Flags().Float64Var(&opts.Tolerance, "tolerance", 0, "geometric comparison tolerance (default 1e-6)")

	return cmd
}

// runFix builds the plan, applies it unless dry-run, and persists outputs.
func (c *CLI) runFix(ctx context.Context, input string, opts pipeline.Options, output, backupPath, planPath string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Fixing %s...", baseName(input)))
	spinner.Start()

	result, err := runner.FixFile(ctx, input, opts)
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			return ctx.Err()
		}
		spinner.StopWithError("Fix failed")
		return err
	}
	spinner.Stop()

	plan := result.Plan
	if plan.Empty() {
		printSuccess("No defects found in %s", baseName(input))
		return nil
	}

	if planPath != "" {
		data, err := report.PlanJSON(plan)
		if err != nil {
			return fmt.Errorf("serialize plan: %w", err)
		}
		if err := os.WriteFile(planPath, data, 0644); err != nil {
			return fmt.Errorf("write plan: %w", err)
		}
		printFile(planPath)
	}

	if opts.DryRun {
		printInfo("Plan for %s (%d actions, dry run)", baseName(input), len(plan.Actions))
		printPlan(plan)
		return nil
	}

	printSuccess("Applied %d actions to %s", len(result.Fix.Applied), baseName(input))
	printDetail("plan %s · rules: %s", plan.ID, strings.Join(plan.Rules(), ", "))

	if backupPath != "" {
		if err := docio.WriteFile(result.Fix.Backup.Document, backupPath); err != nil {
			return fmt.Errorf("write backup: %w", err)
		}
		printFile(backupPath)
	}

	dest := output
	if dest == "" {
		dest = input
	}
	if err := docio.WriteFile(result.Fix.Document, dest); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	printFile(dest)
	return nil
}

// printPlan lists the plan's actions grouped under their rules.
func printPlan(p *fix.Plan) {
	current := ""
	for _, a := range p.Actions {
		if a.Rule != current {
			current = a.Rule
			printInfo("%s", current)
		}
		printDetail("%s", a.Description)
	}
}
