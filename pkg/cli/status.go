package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mockdeck/mockdeck/pkg/cli/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Long: `Show whether the mockdeck daemon is running, along with its
workspace counts and request statistics.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	// A short timeout keeps "not running" fast.
	c := NewAdminClient(adminURL, WithTimeout(2*time.Second))
	st, err := c.GetStatus()
	if err != nil {
		if jsonOutput {
			return output.JSON(out, map[string]any{"running": false})
		}
		fmt.Fprintln(out, "mockdeck is not running")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "To start: mockdeck serve")
		return nil
	}

	if jsonOutput {
		return output.JSON(out, st)
	}

	fmt.Fprintf(out, "mockdeck v%s\n", st.Version)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Admin API     %s  %s  (uptime: %s)\n",
		colorGreen(st.Status), adminURL, formatUptimeSeconds(st.Uptime))
	fmt.Fprintf(out, "  Services      %d running of %d\n", st.RunningServices, st.Services)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Workspace:")
	fmt.Fprintf(out, "  Projects:      %d\n", st.Projects)
	fmt.Fprintf(out, "  Environments:  %d\n", st.Environments)
	if st.ActiveEnvironment != "" {
		fmt.Fprintf(out, "  Active env:    %s\n", st.ActiveEnvironment)
	} else {
		fmt.Fprintf(out, "  Active env:    %s\n", "(none)")
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Requests logged: %s\n", formatNumber(st.RequestCount))
	return nil
}

// colorGreen returns text wrapped in ANSI green color codes.
func colorGreen(s string) string {
	if !isTerminal() {
		return s
	}
	return "\033[32m" + s + "\033[0m"
}

// isTerminal checks if stdout is a terminal.
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// formatNumber formats an integer with thousands separators.
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	str := fmt.Sprintf("%d", n)
	result := ""
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}
