package cli

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/mockdeck/mockdeck/pkg/cli/internal/output"
	"github.com/mockdeck/mockdeck/pkg/registry"
)

var serviceListProject string

var serviceCmd = &cobra.Command{
	Use:     "service",
	Aliases: []string{"services", "svc"},
	Short:   "Manage mock services",
	Long: `Manage mock services registered with the daemon: list them,
start and stop their servers, and inspect their run state.`,
	RunE: runServiceList,
}

var serviceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List services",
	Args:  cobra.NoArgs,
	RunE:  runServiceList,
}

var serviceStartCmd = &cobra.Command{
	Use:   "start <service>",
	Short: "Start a service's mock server",
	Args:  cobra.ExactArgs(1),
	RunE:  runServiceStart,
}

var serviceStopCmd = &cobra.Command{
	Use:   "stop <service>",
	Short: "Stop a service's mock server",
	Args:  cobra.ExactArgs(1),
	RunE:  runServiceStop,
}

var serviceStatusCmd = &cobra.Command{
	Use:   "status <service>",
	Short: "Show one service's run state in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runServiceStatus,
}

func init() {
	serviceListCmd.Flags().StringVar(&serviceListProject, "project", "", "Only services of this project id")

	serviceCmd.AddCommand(serviceListCmd, serviceStartCmd, serviceStopCmd, serviceStatusCmd)
	rootCmd.AddCommand(serviceCmd)
}

// resolveService looks up a service by id first, then by exact name.
func resolveService(c AdminClient, ref string) (*ServiceInfo, error) {
	svc, err := c.GetService(ref)
	if err == nil {
		return svc, nil
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		return nil, err
	}

	list, listErr := c.ListServices("")
	if listErr != nil {
		return nil, listErr
	}
	for _, cand := range list {
		if cand.Name == ref {
			return cand, nil
		}
	}
	return nil, fmt.Errorf("no service with id or name %q", ref)
}

func runServiceList(cmd *cobra.Command, _ []string) error {
	c := newClient()
	services, err := c.ListServices(serviceListProject)
	if err != nil {
		return connectionError(err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return output.JSON(out, services)
	}

	if len(services) == 0 {
		fmt.Fprintln(out, "No services. Define some in mockdeck.yaml and run 'mockdeck serve'.")
		return nil
	}

	// Project names are display only; a lookup failure falls back to ids.
	projectNames := map[string]string{}
	if projects, err := c.ListProjects(); err == nil {
		for _, p := range projects {
			projectNames[p.ID] = p.Name
		}
	}

	w := output.Table(out)
	fmt.Fprintln(w, "NAME\tID\tPROJECT\tPORT\tPREFIX\tSTATUS")
	for _, svc := range services {
		project := projectNames[svc.ProjectID]
		if project == "" {
			project = svc.ProjectID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			svc.Name, svc.ID, project, svc.Port, orNone(svc.Prefix), svc.Status)
	}
	return w.Flush()
}

func runServiceStart(cmd *cobra.Command, args []string) error {
	c := newClient()
	svc, err := resolveService(c, args[0])
	if err != nil {
		return connectionError(err)
	}

	info, err := c.StartService(svc.ID)
	if err != nil {
		return connectionError(err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return output.JSON(out, info)
	}
	fmt.Fprintf(out, "Started %q on http://localhost:%d%s\n", info.ServiceName, info.Port, info.Prefix)
	return nil
}

func runServiceStop(cmd *cobra.Command, args []string) error {
	c := newClient()
	svc, err := resolveService(c, args[0])
	if err != nil {
		return connectionError(err)
	}

	if err := c.StopService(svc.ID); err != nil {
		return connectionError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stopped %q\n", svc.Name)
	return nil
}

func runServiceStatus(cmd *cobra.Command, args []string) error {
	c := newClient()
	svc, err := resolveService(c, args[0])
	if err != nil {
		return connectionError(err)
	}

	info, err := c.ServiceStatus(svc.ID)
	if err != nil {
		return connectionError(err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return output.JSON(out, info)
	}

	fmt.Fprintf(out, "Service:   %s (%s)\n", info.ServiceName, info.ServiceID)
	fmt.Fprintf(out, "Status:    %s\n", info.Status)
	if info.StatusMessage != "" {
		fmt.Fprintf(out, "Message:   %s\n", info.StatusMessage)
	}
	fmt.Fprintf(out, "Port:      %d\n", info.Port)
	if info.Prefix != "" {
		fmt.Fprintf(out, "Prefix:    %s\n", info.Prefix)
	}
	if info.ProxyTarget != "" {
		fmt.Fprintf(out, "Proxy:     %s\n", info.ProxyTarget)
	}
	fmt.Fprintf(out, "Rules:     %d\n", info.RuleCount)
	fmt.Fprintf(out, "Requests:  %d\n", info.RequestCount)
	if info.Status == registry.ServiceStatusRunning {
		fmt.Fprintf(out, "Uptime:    %s\n", formatUptimeSeconds(info.Uptime))
	}
	return nil
}

func formatUptimeSeconds(seconds int) string {
	return (time.Duration(seconds) * time.Second).String()
}
