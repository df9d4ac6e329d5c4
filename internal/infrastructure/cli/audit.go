package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pulse/pkg/application"
)

var (
	auditVerify bool
	auditLimit  int
	auditJSON   bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show and verify the workspace audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadInitializedServices(cmd.Context())
		if err != nil {
			return MapError(err)
		}
		defer func() { _ = services.Close() }()

		if auditVerify {
			return verifyAudit(cmd.OutOrStdout(), services.Audit)
		}

		events, err := services.Audit.Timeline()
		if err != nil {
			return fmt.Errorf("failed to load audit trail: %w", err)
		}
		if auditLimit > 0 && len(events) > auditLimit {
			events = events[len(events)-auditLimit:]
		}
		if auditJSON {
			return writeJSON(cmd.OutOrStdout(), events)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			_, _ = fmt.Fprintln(out, "No audit events recorded.")
			return nil
		}
		for _, e := range events {
			_, _ = fmt.Fprintf(out, "%s  %-18s %-8s %s\n",
				e.Timestamp.Format("2006-01-02 15:04:05"), e.Action, e.Actor, mutedStyle.Render(formatMetadata(e.Metadata)))
		}
		return nil
	},
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of the audit hash chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadInitializedServices(cmd.Context())
		if err != nil {
			return MapError(err)
		}
		defer func() { _ = services.Close() }()
		return verifyAudit(cmd.OutOrStdout(), services.Audit)
	},
}

func verifyAudit(out io.Writer, audit *application.AuditService) error {
	_, _ = fmt.Fprintln(out, "Verifying audit trail integrity...")
	violations, err := audit.VerifyIntegrity()
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	if len(violations) == 0 {
		_, _ = fmt.Fprintln(out, infoStyle.Render("Audit trail is intact and verified."))
		return nil
	}

	_, _ = fmt.Fprintf(out, "Found %d integrity violations:\n", len(violations))
	for _, v := range violations {
		_, _ = fmt.Fprintf(out, "  - %s\n", v)
	}
	return &CLIError{
		Message:  fmt.Sprintf("audit trail has %d integrity violations", len(violations)),
		Hint:     "Restore .pulse/events.jsonl from a backup",
		ExitCode: 2,
	}
}

func formatMetadata(m map[string]any) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return strings.Join(parts, " ")
}

func init() {
	auditCmd.Flags().BoolVar(&auditVerify, "verify", false, "Verify the hash chain instead of listing events")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 20, "Show only the most recent events (0 for all)")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "Output as JSON")
	auditCmd.AddCommand(auditVerifyCmd)
	RootCmd.AddCommand(auditCmd)
}
