// Package cli provides the mockdeck CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mockdeck/mockdeck/pkg/cliconfig"
)

var (
	// Persistent flags available to all subcommands
	adminURL   string
	jsonOutput bool

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mockdeck",
	Short: "mockdeck manages environment-aware mock services",
	Long: `mockdeck runs mock HTTP services locally and switches them between
environments without editing configuration. An environment carries
variables and per-service overrides; activating one changes how every
service resolves its port, path prefix, and passthrough target.

'mockdeck serve' starts the daemon. Every other command talks to it
over the admin API, which defaults to http://localhost:4590.`,
	// No Run function here means 'mockdeck' with no args prints help text.
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&adminURL, "admin-url", cliconfig.GetAdminURL(), "Admin API base URL (default: http://localhost:4590)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
}

// newClient creates an admin client for the configured admin URL.
func newClient() AdminClient {
	return NewAdminClient(adminURL)
}

// connectionError rewraps client errors so connection failures come with
// suggestions.
func connectionError(err error) error {
	return fmt.Errorf("%s", FormatConnectionError(err))
}
