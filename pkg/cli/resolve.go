package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mockdeck/mockdeck/pkg/cli/internal/output"
)

var (
	resolveScopeService string
	resolveScopeProject string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Preview environment resolution",
	Long: `Preview what the active environment resolves to, without
starting or touching any service. 'resolve config' shows the merged
service configuration; 'resolve vars' substitutes {{VARIABLE}}
references in a piece of text.`,
}

var resolveConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved service configuration",
	Example: `  mockdeck resolve config --service payments
  mockdeck resolve config --project 1712000000000`,
	Args: cobra.NoArgs,
	RunE: runResolveConfig,
}

var resolveVarsCmd = &cobra.Command{
	Use:   "vars <text>",
	Short: "Substitute variables in text",
	Example: `  mockdeck resolve vars '{{API_URL}}/users/{{USER_ID}}'
  mockdeck resolve vars --service payments '{{API_KEY}}'`,
	Args: cobra.ExactArgs(1),
	RunE: runResolveVars,
}

func init() {
	for _, c := range []*cobra.Command{resolveConfigCmd, resolveVarsCmd} {
		c.Flags().StringVar(&resolveScopeService, "service", "", "Service id or name for scoped resolution")
		c.Flags().StringVar(&resolveScopeProject, "project", "", "Project id for scoped resolution")
	}

	resolveCmd.AddCommand(resolveConfigCmd, resolveVarsCmd)
	rootCmd.AddCommand(resolveCmd)
}

// resolveScope maps the --service flag (id or name) to a service id.
// The project flag passes through untouched; the daemon fills in the
// service's project when only a service is given.
func resolveScope(c AdminClient) (serviceID, projectID string, err error) {
	serviceID = resolveScopeService
	if serviceID != "" {
		svc, err := resolveService(c, serviceID)
		if err != nil {
			return "", "", err
		}
		serviceID = svc.ID
	}
	return serviceID, resolveScopeProject, nil
}

func runResolveConfig(cmd *cobra.Command, _ []string) error {
	c := newClient()
	serviceID, projectID, err := resolveScope(c)
	if err != nil {
		return connectionError(err)
	}

	resolved, err := c.ResolveConfig(serviceID, projectID)
	if err != nil {
		return connectionError(err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return output.JSON(out, resolved)
	}

	if resolved.Config.IsZero() {
		fmt.Fprintln(out, "No configuration set by the active environment.")
		return nil
	}
	printServiceConfig(out, "", &resolved.Config)
	return nil
}

func runResolveVars(cmd *cobra.Command, args []string) error {
	c := newClient()
	serviceID, projectID, err := resolveScope(c)
	if err != nil {
		return connectionError(err)
	}

	resolved, err := c.ResolveVariables(args[0], serviceID, projectID)
	if err != nil {
		return connectionError(err)
	}

	if jsonOutput {
		return output.JSON(cmd.OutOrStdout(), map[string]string{"text": resolved})
	}
	fmt.Fprintln(cmd.OutOrStdout(), resolved)
	return nil
}
