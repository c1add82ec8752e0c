package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mockdeck/mockdeck/pkg/cli/internal/output"
	"github.com/mockdeck/mockdeck/pkg/requestlog"
)

var (
	logsService   string
	logsMethod    string
	logsPath      string
	logsMatched   bool
	logsUnmatched bool
	logsLimit     int
	logsVerbose   bool
	logsClear     bool
	logsFollow    bool
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View the request log",
	Long: `View requests received by the running mock services. Without
flags the most recent entries are shown; --follow streams new entries
as they arrive, like tail -f.`,
	Example: `  # Show recent requests
  mockdeck logs

  # Last 50 POST requests of one service
  mockdeck logs -n 50 -m POST --service payments

  # Stream in real time
  mockdeck logs --follow

  # Clear the log
  mockdeck logs --clear`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().StringVar(&logsService, "service", "", "Filter by service id or name")
	logsCmd.Flags().StringVarP(&logsMethod, "method", "m", "", "Filter by HTTP method")
	logsCmd.Flags().StringVarP(&logsPath, "path", "p", "", "Filter by path (substring match)")
	logsCmd.Flags().BoolVar(&logsMatched, "matched", false, "Show only requests a rule matched")
	logsCmd.Flags().BoolVar(&logsUnmatched, "unmatched", false, "Show only requests no rule matched")
	logsCmd.Flags().IntVarP(&logsLimit, "limit", "n", 20, "Number of entries to show")
	logsCmd.Flags().BoolVar(&logsVerbose, "verbose", false, "Show headers and body")
	logsCmd.Flags().BoolVar(&logsClear, "clear", false, "Clear the log instead of listing it")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Stream entries in real time")
	rootCmd.AddCommand(logsCmd)
}

// logsServiceID maps the --service flag to a service id, accepting a
// name too. An empty flag stays empty.
func logsServiceID(c AdminClient) (string, error) {
	if logsService == "" {
		return "", nil
	}
	svc, err := resolveService(c, logsService)
	if err != nil {
		return "", err
	}
	return svc.ID, nil
}

func runLogs(cmd *cobra.Command, _ []string) error {
	c := newClient()
	out := cmd.OutOrStdout()

	serviceID, err := logsServiceID(c)
	if err != nil {
		return connectionError(err)
	}

	if logsClear {
		cleared, err := c.ClearLogs(serviceID)
		if err != nil {
			return connectionError(err)
		}
		fmt.Fprintf(out, "Cleared %d log entries\n", cleared)
		return nil
	}

	if logsFollow {
		return streamLogs(out, serviceID)
	}

	result, err := c.GetLogs(&LogFilter{
		ServiceID: serviceID,
		Method:    logsMethod,
		Path:      logsPath,
		Limit:     logsLimit,
	})
	if err != nil {
		return connectionError(err)
	}

	// Matched filtering happens locally so one listing call serves both.
	entries := result.Requests
	if logsMatched || logsUnmatched {
		filtered := make([]*requestlog.Entry, 0, len(entries))
		for _, e := range entries {
			hasMatch := e.MatchedRuleID != ""
			if (logsMatched && hasMatch) || (logsUnmatched && !hasMatch) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	if jsonOutput {
		return output.JSON(out, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No request logs")
		return nil
	}

	if logsVerbose {
		for _, e := range entries {
			printVerboseEntry(out, e)
		}
		return nil
	}
	return printLogTable(out, entries)
}

func printLogTable(out io.Writer, entries []*requestlog.Entry) error {
	w := output.Table(out)
	fmt.Fprintln(w, "TIMESTAMP\tSERVICE\tMETHOD\tPATH\tSTATUS\tMATCHED\tDURATION")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%dms\n",
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.ServiceID,
			e.Method,
			truncate(e.Path, 25),
			e.ResponseStatus,
			truncate(matchLabel(e), 15),
			e.DurationMs)
	}
	return w.Flush()
}

// streamLogs connects to the SSE endpoint and prints entries until the
// user interrupts or the daemon goes away.
func streamLogs(out io.Writer, serviceID string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		fmt.Fprintln(out, "\nStopping log stream...")
		cancel()
	}()

	streamURL := adminURL + "/requests/stream"
	if serviceID != "" {
		streamURL += "?service=" + url.QueryEscape(serviceID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return fmt.Errorf("creating stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// A dedicated client without a timeout; the stream stays open until
	// canceled.
	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return connectionError(&APIError{
			ErrorCode: "connection_error",
			Message:   fmt.Sprintf("cannot connect to admin API at %s: %v", adminURL, err),
		})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	fmt.Fprintln(out, "Streaming request log (press Ctrl+C to stop)...")
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "event:") {
			continue
		}

		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		// The first event is the connection banner, not an entry.
		if strings.Contains(data, "Streaming request log") {
			continue
		}

		var entry requestlog.Entry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			continue
		}

		switch {
		case jsonOutput:
			fmt.Fprintln(out, data)
		case logsVerbose:
			printVerboseEntry(out, &entry)
		default:
			fmt.Fprintf(out, "%s  %s  %-6s  %-25s  %d  %-15s  %dms\n",
				entry.Timestamp.Format("2006-01-02 15:04:05"),
				entry.ServiceID,
				entry.Method,
				truncate(entry.Path, 25),
				entry.ResponseStatus,
				truncate(matchLabel(&entry), 15),
				entry.DurationMs)
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("reading stream: %w", err)
	}
	return nil
}

func printVerboseEntry(out io.Writer, e *requestlog.Entry) {
	fmt.Fprintf(out, "[%s] %s %s → %d (%dms)\n",
		e.Timestamp.Format("2006-01-02 15:04:05"), e.Method, e.Path, e.ResponseStatus, e.DurationMs)
	fmt.Fprintf(out, "  Service: %s\n", e.ServiceID)
	fmt.Fprintf(out, "  Matched: %s\n", matchLabel(e))

	if len(e.Headers) > 0 {
		fmt.Fprintln(out, "  Headers:")
		for key, values := range e.Headers {
			for _, value := range values {
				fmt.Fprintf(out, "    %s: %s\n", key, value)
			}
		}
	}

	if e.Body != "" {
		body := e.Body
		if len(body) > 200 {
			body = body[:200] + "...(truncated)"
		}
		fmt.Fprintf(out, "  Body: %s\n", body)
	} else {
		fmt.Fprintln(out, "  Body: (empty)")
	}
	fmt.Fprintln(out)
}

// matchLabel names what handled the request: the matching rule, the
// real backend, or nothing.
func matchLabel(e *requestlog.Entry) string {
	switch {
	case e.MatchedRuleID != "":
		return e.MatchedRuleID
	case e.Forwarded:
		return "(forwarded)"
	default:
		return "(none)"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
