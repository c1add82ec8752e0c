package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/mockdeck/mockdeck/pkg/cli/internal/output"
	"github.com/mockdeck/mockdeck/pkg/env"
)

var (
	envCreateName  string
	envCreateColor string
	envCreateVars  []string
	envCreateUse   bool
	envExportFile  string
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Manage environments",
	Long: `Manage environments: named variable sets with optional service
overrides. The active environment drives variable substitution and
service configuration for every running mock service.`,
	RunE: runEnvList,
}

var envListCmd = &cobra.Command{
	Use:   "list",
	Short: "List environments",
	Args:  cobra.NoArgs,
	RunE:  runEnvList,
}

var envShowCmd = &cobra.Command{
	Use:   "show <environment>",
	Short: "Show one environment in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnvShow,
}

var envCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an environment",
	Long: `Create an environment. With --name the environment is created
directly from flags; without it an interactive prompt collects the
name, color, and variables.`,
	Example: `  # Interactive
  mockdeck env create

  # Non-interactive
  mockdeck env create --name staging --color blue --var API_URL=https://staging.example.com`,
	Args: cobra.NoArgs,
	RunE: runEnvCreate,
}

var envUseCmd = &cobra.Command{
	Use:   "use <environment>",
	Short: "Activate an environment",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnvUse,
}

var envClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Deactivate the active environment",
	Args:  cobra.NoArgs,
	RunE:  runEnvClear,
}

var envDeleteCmd = &cobra.Command{
	Use:   "delete <environment>",
	Short: "Delete an environment",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnvDelete,
}

var envExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all environments as JSON",
	Args:  cobra.NoArgs,
	RunE:  runEnvExport,
}

var envImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import environments from a JSON export",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnvImport,
}

func init() {
	envCreateCmd.Flags().StringVar(&envCreateName, "name", "", "Environment name")
	envCreateCmd.Flags().StringVar(&envCreateColor, "color", "", "UI accent color (hex or named)")
	envCreateCmd.Flags().StringArrayVar(&envCreateVars, "var", nil, "Variable as KEY=VALUE (repeatable)")
	envCreateCmd.Flags().BoolVar(&envCreateUse, "use", false, "Activate the environment after creating it")
	envExportCmd.Flags().StringVarP(&envExportFile, "output", "o", "", "Write the export to a file instead of stdout")

	envCmd.AddCommand(envListCmd, envShowCmd, envCreateCmd, envUseCmd,
		envClearCmd, envDeleteCmd, envExportCmd, envImportCmd)
	rootCmd.AddCommand(envCmd)
}

// resolveEnvironment looks up an environment by id first, then by exact
// name. Anything other than a 404 on the id lookup is returned as-is.
func resolveEnvironment(c AdminClient, ref string) (*env.Environment, error) {
	e, err := c.GetEnvironment(ref)
	if err == nil {
		return e, nil
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		return nil, err
	}

	list, listErr := c.ListEnvironments()
	if listErr != nil {
		return nil, listErr
	}
	for _, cand := range list.Environments {
		if cand.Name == ref {
			return cand, nil
		}
	}
	return nil, fmt.Errorf("no environment with id or name %q", ref)
}

func runEnvList(cmd *cobra.Command, _ []string) error {
	c := newClient()
	list, err := c.ListEnvironments()
	if err != nil {
		return connectionError(err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return output.JSON(out, list)
	}

	if len(list.Environments) == 0 {
		fmt.Fprintln(out, "No environments. Create one with 'mockdeck env create'.")
		return nil
	}

	w := output.Table(out)
	fmt.Fprintln(w, " \tNAME\tID\tCOLOR\tVARIABLES")
	for _, e := range list.Environments {
		marker := " "
		if e.ID == list.ActiveID {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", marker, e.Name, e.ID, orNone(e.Color), len(e.Variables))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if list.ActiveID == "" {
		fmt.Fprintln(out, "\nNo active environment. Activate one with 'mockdeck env use <name>'.")
	}
	return nil
}

func runEnvShow(cmd *cobra.Command, args []string) error {
	c := newClient()
	e, err := resolveEnvironment(c, args[0])
	if err != nil {
		return connectionError(err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return output.JSON(out, e)
	}

	active, err := c.ActiveEnvironment()
	if err != nil {
		return connectionError(err)
	}
	isActive := active != nil && active.ID == e.ID

	fmt.Fprintf(out, "Name:     %s\n", e.Name)
	fmt.Fprintf(out, "ID:       %s\n", e.ID)
	fmt.Fprintf(out, "Color:    %s\n", orNone(e.Color))
	fmt.Fprintf(out, "Active:   %s\n", yesNo(isActive))
	fmt.Fprintf(out, "Created:  %s\n", formatMillis(e.CreatedAt))
	fmt.Fprintf(out, "Updated:  %s\n", formatMillis(e.UpdatedAt))

	fmt.Fprintln(out, "\nVariables:")
	if len(e.Variables) == 0 {
		fmt.Fprintln(out, "  (none)")
	} else {
		w := output.Table(out)
		fmt.Fprintln(w, "  KEY\tVALUE\tENABLED\tDESCRIPTION")
		for _, v := range e.Variables {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", v.Key, v.Value, yesNo(v.IsEnabled()), v.Description)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if !e.ServiceConfig.IsZero() {
		fmt.Fprintln(out, "\nService config:")
		printServiceConfig(out, "  ", e.ServiceConfig)
	}

	if len(e.Overrides) > 0 {
		fmt.Fprintln(out, "\nOverrides:")
		for _, o := range e.Overrides {
			target := o.TargetName
			if target == "" {
				target = o.TargetID
			}
			fmt.Fprintf(out, "  %s %s: %d variables", o.Scope, target, len(o.Variables))
			if !o.ServiceConfig.IsZero() {
				fmt.Fprint(out, ", service config")
			}
			fmt.Fprintln(out)
		}
	}
	return nil
}

func runEnvCreate(cmd *cobra.Command, _ []string) error {
	name := envCreateName
	color := envCreateColor
	varFlags := envCreateVars

	if !cmd.Flags().Changed("name") {
		wizardVars, err := runEnvCreateWizard(&name, &color)
		if err != nil {
			return err
		}
		varFlags = append(varFlags, wizardVars...)
	}

	vars, err := parseVarFlags(varFlags)
	if err != nil {
		return err
	}

	c := newClient()
	created, err := c.CreateEnvironment(&env.Environment{
		Name:      name,
		Color:     color,
		Variables: vars,
	})
	if err != nil {
		return connectionError(err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return output.JSON(out, created)
	}
	fmt.Fprintf(out, "Created environment %q (%s)\n", created.Name, created.ID)

	if envCreateUse {
		if err := c.ActivateEnvironment(created.ID); err != nil {
			return connectionError(err)
		}
		fmt.Fprintf(out, "Environment %q is now active\n", created.Name)
	}
	return nil
}

// runEnvCreateWizard prompts for the environment basics and a variable
// list. Collected variables come back in KEY=VALUE form so they share
// the flag parsing path.
func runEnvCreateWizard(name, color *string) ([]string, error) {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Environment name").
				Placeholder("staging").
				Value(name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Accent color").
				Options(
					huh.NewOption("None", ""),
					huh.NewOption("Blue", "blue"),
					huh.NewOption("Green", "green"),
					huh.NewOption("Yellow", "yellow"),
					huh.NewOption("Orange", "orange"),
					huh.NewOption("Red", "red"),
					huh.NewOption("Purple", "purple"),
				).
				Value(color),
		),
	)
	if err := form.Run(); err != nil {
		return nil, err
	}

	var vars []string
	for {
		addVar := false
		confirm := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Add a variable?").
					Value(&addVar),
			),
		)
		if err := confirm.Run(); err != nil {
			return nil, err
		}
		if !addVar {
			return vars, nil
		}

		var key, value string
		varForm := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Variable name").
					Placeholder("API_URL").
					Value(&key).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return errors.New("variable name is required")
						}
						return nil
					}),
				huh.NewInput().
					Title("Value").
					Value(&value),
			),
		)
		if err := varForm.Run(); err != nil {
			return nil, err
		}
		vars = append(vars, key+"="+value)
	}
}

func runEnvUse(cmd *cobra.Command, args []string) error {
	c := newClient()
	e, err := resolveEnvironment(c, args[0])
	if err != nil {
		return connectionError(err)
	}
	if err := c.ActivateEnvironment(e.ID); err != nil {
		return connectionError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Environment %q is now active\n", e.Name)
	return nil
}

func runEnvClear(cmd *cobra.Command, _ []string) error {
	c := newClient()
	if err := c.DeactivateEnvironment(); err != nil {
		return connectionError(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Active environment cleared")
	return nil
}

func runEnvDelete(cmd *cobra.Command, args []string) error {
	c := newClient()
	e, err := resolveEnvironment(c, args[0])
	if err != nil {
		return connectionError(err)
	}
	if err := c.DeleteEnvironment(e.ID); err != nil {
		return connectionError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted environment %q\n", e.Name)
	return nil
}

func runEnvExport(cmd *cobra.Command, _ []string) error {
	c := newClient()
	data, err := c.ExportEnvironments()
	if err != nil {
		return connectionError(err)
	}

	if envExportFile == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(envExportFile, data, 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported environments to %s\n", envExportFile)
	return nil
}

func runEnvImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading import file: %w", err)
	}

	c := newClient()
	result, err := c.ImportEnvironments(data)
	if err != nil {
		return connectionError(err)
	}

	if jsonOutput {
		return output.JSON(cmd.OutOrStdout(), result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d environments\n", result.Imported)
	return nil
}

// parseVarFlags turns KEY=VALUE strings into variables.
func parseVarFlags(flags []string) ([]env.Variable, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	vars := make([]env.Variable, 0, len(flags))
	for _, f := range flags {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q, expected KEY=VALUE", f)
		}
		vars = append(vars, env.Variable{Key: key, Value: value})
	}
	return vars, nil
}

func printServiceConfig(out io.Writer, indent string, sc *env.ServiceConfig) {
	if sc == nil {
		return
	}
	if sc.Port != nil {
		fmt.Fprintf(out, "%sport:       %d\n", indent, *sc.Port)
	}
	if sc.Prefix != nil {
		fmt.Fprintf(out, "%sprefix:     %s\n", indent, *sc.Prefix)
	}
	if sc.RealHost != nil {
		fmt.Fprintf(out, "%srealHost:   %s\n", indent, *sc.RealHost)
	}
	if sc.RealPort != nil {
		fmt.Fprintf(out, "%srealPort:   %d\n", indent, *sc.RealPort)
	}
	if sc.RealPrefix != nil {
		fmt.Fprintf(out, "%srealPrefix: %s\n", indent, *sc.RealPrefix)
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04:05")
}
