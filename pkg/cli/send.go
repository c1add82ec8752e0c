package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mockdeck/mockdeck/pkg/cli/internal/output"
	"github.com/mockdeck/mockdeck/pkg/request"
)

var (
	sendMethod  string
	sendHeaders []string
	sendData    string
	sendService string
	sendProject string
	sendVerbose bool
)

var sendCmd = &cobra.Command{
	Use:   "send <url>",
	Short: "Send an HTTP request through the daemon",
	Long: `Send an HTTP request through the daemon. The URL, headers, and
body may contain {{VARIABLE}} references, which the daemon resolves
against the active environment before sending. Pass --service or
--project to resolve service- or project-scoped overrides too.`,
	Example: `  mockdeck send {{API_URL}}/users
  mockdeck send -X POST -H 'Content-Type: application/json' -d '{"name":"ada"}' {{API_URL}}/users
  mockdeck send --service payments -d @payload.json {{API_URL}}/charge`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVarP(&sendMethod, "method", "X", "GET", "HTTP method")
	sendCmd.Flags().StringArrayVarP(&sendHeaders, "header", "H", nil, "Header as 'Key: Value' (repeatable)")
	sendCmd.Flags().StringVarP(&sendData, "data", "d", "", "Request body; @file reads the body from a file")
	sendCmd.Flags().StringVar(&sendService, "service", "", "Service id or name for scoped variable resolution")
	sendCmd.Flags().StringVar(&sendProject, "project", "", "Project id for scoped variable resolution")
	sendCmd.Flags().BoolVarP(&sendVerbose, "verbose", "v", false, "Print response headers")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	headers, err := parseHeaderFlags(sendHeaders)
	if err != nil {
		return err
	}

	body := sendData
	if strings.HasPrefix(body, "@") {
		data, err := os.ReadFile(body[1:])
		if err != nil {
			return fmt.Errorf("reading body file: %w", err)
		}
		body = string(data)
	}

	c := newClient()

	serviceID := sendService
	if serviceID != "" {
		svc, err := resolveService(c, serviceID)
		if err != nil {
			return connectionError(err)
		}
		serviceID = svc.ID
	}

	result, err := c.Send(&request.Definition{
		Method:  sendMethod,
		URL:     args[0],
		Headers: headers,
		Body:    body,
	}, serviceID, sendProject)
	if err != nil {
		return connectionError(err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return output.JSON(out, result)
	}

	fmt.Fprintf(out, "HTTP %s\n", result.Status)
	if sendVerbose {
		keys := make([]string, 0, len(result.Headers))
		for k := range result.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "%s: %s\n", k, result.Headers[k])
		}
	}
	if result.Body != "" {
		fmt.Fprintf(out, "\n%s\n", result.Body)
	}
	fmt.Fprintf(out, "\n(%d bytes in %s)\n", result.BodySize, time.Duration(result.DurationMs)*time.Millisecond)
	return nil
}

// parseHeaderFlags turns 'Key: Value' strings into a header map.
func parseHeaderFlags(flags []string) (map[string]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(flags))
	for _, f := range flags {
		key, value, ok := strings.Cut(f, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --header %q, expected 'Key: Value'", f)
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return headers, nil
}
