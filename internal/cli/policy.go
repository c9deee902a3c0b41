package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/drawrev/drawrev/pkg/docio"
	"github.com/drawrev/drawrev/pkg/standards"
)

// policyCommand creates the policy inspection command.
func (c *CLI) policyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect drafting standards",
	}

	cmd.AddCommand(c.policyShowCommand())
	cmd.AddCommand(c.policyCheckCommand())

	return cmd
}

// policyShowCommand creates the "policy show" subcommand.
func (c *CLI) policyShowCommand() *cobra.Command {
	var policyFile string

	cmd := &cobra.Command{
		Use:   "show [standard]",
		Short: "Print a drafting policy as TOML",
		Long: `Print a drafting policy as TOML.

Without arguments the builtin ISO policy is printed. The output is a
valid policy file: redirect it, edit it, and pass it back with
--policy to customize layer colors, linetypes, or text heights.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "iso"
			if len(args) == 1 {
				name = args[0]
			}

			var (
				policy standards.Policy
				err    error
			)
			if policyFile != "" {
				policy, err = standards.Load(policyFile)
			} else {
				policy, err = standards.Get(name)
			}
			if err != nil {
				return err
			}

			return toml.NewEncoder(os.Stdout).Encode(policy)
		},
	}

	cmd.Flags().StringVar(&policyFile, "policy", "", "TOML policy file to print instead of a builtin standard")

	return cmd
}

// policyCheckCommand creates the "policy check" subcommand.
func (c *CLI) policyCheckCommand() *cobra.Command {
	var (
		standard   string
		policyFile string
	)

	cmd := &cobra.Command{
		Use:   "check [document.json]",
		Short: "List policy violations in a document",
		Long: `Check a document against a drafting policy without modifying it.

Reports layer colors and linetypes that differ from the standard and
text records whose height is outside the allowed range. Exit status is
1 when violations are found, so the command can gate CI pipelines.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				policy standards.Policy
				err    error
			)
			if policyFile != "" {
				policy, err = standards.Load(policyFile)
			} else {
				policy, err = standards.Get(standard)
			}
			if err != nil {
				return err
			}

			doc, err := docio.ReadFile(args[0])
			if err != nil {
				return err
			}

			violations := policy.Check(doc)
			if len(violations) == 0 {
				printSuccess("%s conforms to %s", baseName(args[0]), policy.Name)
				return nil
			}

			printWarning("%d violations of %s in %s", len(violations), policy.Name, baseName(args[0]))
			for _, v := range violations {
				switch {
				case v.Handle != "":
					printDetail("[%s] record %s: %s", v.Type, v.Handle, v.Detail)
				default:
					printDetail("[%s] layer %s: %s", v.Type, v.Layer, v.Detail)
				}
			}
			return fmt.Errorf("%d policy violations", len(violations))
		},
	}

	cmd.Flags().StringVar(&standard, "standard", "iso", "drafting standard to check against")
	cmd.Flags().StringVar(&policyFile, "policy", "", "TOML policy file overriding --standard")

	return cmd
}
