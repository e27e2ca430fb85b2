package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/correlate/internal/ir"
	"github.com/roach88/correlate/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Context  string // optional - filter to one context uuid
}

// TraceRecord is one stored output record.
type TraceRecord struct {
	Seq         int64             `json:"seq"`
	ID          string            `json:"id"`
	ContextID   string            `json:"context_id"`
	ContextName string            `json:"context,omitempty"`
	Name        string            `json:"name"`
	Values      map[string]string `json:"values,omitempty"`
	Messages    []string          `json:"messages,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Context string        `json:"context,omitempty"`
	Records []TraceRecord `json:"records"`
	Stats   TraceStats    `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Records  int   `json:"records"`
	Contexts int   `json:"contexts"`
	Messages int   `json:"messages"`
	MaxSeq   int64 `json:"max_seq"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "List stored output records",
		Long: `List the records a run wrote to its SQLite audit store, in seq order.

Each record shows the context that closed, the emitted name and values,
and with --verbose its ID and the UUIDs of the correlated messages.

Examples:
  correlate trace --db ./correlate.db
  correlate trace --db ./correlate.db --context 6d2cba0c-3b1c-4f6e-9a7e-2f1c2d3e4f50
  correlate trace --db ./correlate.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Context, "context", "", "filter to one context uuid")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// store.Open creates missing files; trace should never do that.
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	records, err := st.ReadResults(ctx, strings.ToLower(opts.Context))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read records", err)
	}

	result := buildTrace(opts.Context, records)

	formatter := newFormatter(opts.RootOptions, cmd)
	if formatter.JSON() {
		return formatter.Success(result)
	}
	return outputTraceText(formatter.Writer, result, opts.Verbose)
}

// buildTrace converts stored records into the trace view.
func buildTrace(contextID string, records []ir.ExecResult) TraceResult {
	result := TraceResult{
		Context: contextID,
		Records: make([]TraceRecord, 0, len(records)),
	}

	contexts := make(map[string]struct{})
	for _, r := range records {
		result.Records = append(result.Records, TraceRecord{
			Seq:         r.Seq,
			ID:          r.ID,
			ContextID:   r.ContextID,
			ContextName: r.ContextName,
			Name:        r.Name,
			Values:      r.Values,
			Messages:    r.MessageUUIDs(),
		})
		contexts[r.ContextID] = struct{}{}
		result.Stats.Messages += len(r.Messages)
		result.Stats.MaxSeq = max(result.Stats.MaxSeq, r.Seq)
	}
	result.Stats.Records = len(records)
	result.Stats.Contexts = len(contexts)

	return result
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	if result.Context != "" {
		fmt.Fprintf(w, "Trace for Context: %s\n\n", result.Context)
	}

	fmt.Fprintln(w, "=== Records ===")
	if len(result.Records) == 0 {
		fmt.Fprintln(w, "  (no records)")
	}
	for _, rec := range result.Records {
		label := rec.ContextName
		if label == "" {
			label = truncateID(rec.ContextID)
		}
		fmt.Fprintf(w, "  [%d] %s %s %s\n", rec.Seq, label, rec.Name, formatValues(rec.Values))
		if verbose {
			fmt.Fprintf(w, "       ID: %s\n", truncateID(rec.ID))
			fmt.Fprintf(w, "       Messages: %s\n", strings.Join(rec.Messages, ", "))
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Records:  %d\n", result.Stats.Records)
	fmt.Fprintf(w, "  Contexts: %d\n", result.Stats.Contexts)
	fmt.Fprintf(w, "  Messages: %d\n", result.Stats.Messages)
	fmt.Fprintf(w, "  Max Seq:  %d\n", result.Stats.MaxSeq)

	return nil
}

// formatValues formats record values for display.
// Uses sorted keys to ensure deterministic output.
func formatValues(values map[string]string) string {
	if len(values) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + values[k]
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
