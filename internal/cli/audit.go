package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/clauserisk/internal/audit"
)

var (
	auditLimit int
	auditJSON  bool
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the append-only audit log",
	Long: `The audit log keeps one record per analysis run with --audit (or
audit.enabled in the config file). Records are never updated or deleted.`,
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded analyses, newest first",
	Args:  cobra.NoArgs,
	RunE:  runAuditList,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditListCmd)

	auditListCmd.Flags().IntVar(&auditLimit, "limit", 20, "maximum records to show (0 = all)")
	auditListCmd.Flags().BoolVar(&auditJSON, "json", false, "print records as JSON, including clauses")
}

func runAuditList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := audit.Open(cfg.Audit.DataDir)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer func() { _ = store.Close() }()

	records, err := store.List(context.Background(), auditLimit)
	if err != nil {
		return err
	}

	if auditJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	return writeAuditTable(cmd.OutOrStdout(), records)
}

// writeAuditTable prints one line per record
func writeAuditTable(w io.Writer, records []audit.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No audit records.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RECORDED\tID\tSCORE\tBAND\tSTATUS\tLANG\tCLAUSES\tSOURCE")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%d\t%s\n",
			r.RecordedAt.Local().Format(time.DateTime), r.ID, r.CompositeScore, r.Band,
			r.Status, r.Language, r.TotalClauses, r.Source)
	}
	return tw.Flush()
}
