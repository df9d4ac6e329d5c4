package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pulse/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/pulse/pkg/application"
	"github.com/felixgeelhaar/pulse/pkg/domain/wbs"
	"github.com/felixgeelhaar/pulse/pkg/infrastructure/dashboard"
)

// reportFlags are the window and output flags shared by the report commands.
type reportFlags struct {
	days    int
	horizon string
	json    bool
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.days, "days", 0, "Reporting window in days (default from pulse.yaml)")
	cmd.Flags().StringVar(&f.horizon, "horizon", "", "WBS horizon: all, <n> or <n>d (default from pulse.yaml)")
	cmd.Flags().BoolVar(&f.json, "json", false, "Output as JSON")
}

func (f *reportFlags) request(services *wiring.AppServices) (application.Request, error) {
	req := services.DefaultRequest("cli")
	if f.days < 0 {
		return req, fmt.Errorf("--days must not be negative")
	}
	if f.days > 0 {
		req.Days = f.days
	}
	if f.horizon != "" {
		h, err := wbs.ParseHorizon(f.horizon)
		if err != nil {
			return req, err
		}
		req.Horizon = h
	}
	return req, nil
}

// runReport generates one report and hands it to fn.
func runReport(cmd *cobra.Command, f *reportFlags, fn func(*wiring.AppServices, *application.Report) error) error {
	services, err := loadInitializedServices(cmd.Context())
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = services.Close() }()

	req, err := f.request(services)
	if err != nil {
		return err
	}
	report, err := services.Insights.Generate(cmd.Context(), req)
	if err != nil {
		return MapError(err)
	}
	return fn(services, report)
}

var insightsFlags reportFlags

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show the ordered insight list for the portfolio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, &insightsFlags, func(_ *wiring.AppServices, r *application.Report) error {
			if insightsFlags.json {
				return writeJSON(cmd.OutOrStdout(), r)
			}
			renderReport(cmd.OutOrStdout(), r)
			return nil
		})
	},
}

var warningsFlags reportFlags

var warningsCmd = &cobra.Command{
	Use:   "warnings",
	Short: "Show ranked warnings and the narrative",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, &warningsFlags, func(_ *wiring.AppServices, r *application.Report) error {
			if warningsFlags.json {
				return writeJSON(cmd.OutOrStdout(), dashboard.NewWarningsView(r))
			}
			renderWarnings(cmd.OutOrStdout(), r)
			return nil
		})
	},
}

var wbsFlags reportFlags

var wbsCmd = &cobra.Command{
	Use:   "wbs",
	Short: "Show WBS hygiene statistics across projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, &wbsFlags, func(_ *wiring.AppServices, r *application.Report) error {
			if wbsFlags.json {
				return writeJSON(cmd.OutOrStdout(), r.WBS)
			}
			renderWBS(cmd.OutOrStdout(), r.WBS, r.Horizon)
			return nil
		})
	},
}

var flowFlags reportFlags

var flowCmd = &cobra.Command{
	Use:   "flow",
	Short: "Show aggregated flow telemetry",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, &flowFlags, func(_ *wiring.AppServices, r *application.Report) error {
			if flowFlags.json {
				return writeJSON(cmd.OutOrStdout(), r.Flow)
			}
			renderFlow(cmd.OutOrStdout(), r.Flow)
			return nil
		})
	},
}

var notifyFlags reportFlags

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send the current narrative to the configured adapters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, &notifyFlags, func(services *wiring.AppServices, r *application.Report) error {
			if err := services.Alerts.Summary(cmd.Context(), r); err != nil {
				return NewCLIError("some notifications failed", "Check .pulse/messaging.yaml and .pulse/deadletters.jsonl", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Sent %s summary for report %s\n", r.Severity, r.ID)
			return nil
		})
	},
}

var notifyRedeliverCmd = &cobra.Command{
	Use:   "redeliver",
	Short: "Retry webhook notifications recorded in deadletters.jsonl",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadInitializedServices(cmd.Context())
		if err != nil {
			return MapError(err)
		}
		defer func() { _ = services.Close() }()

		out := cmd.OutOrStdout()
		if services.Webhooks == nil {
			_, _ = fmt.Fprintln(out, mutedStyle.Render("No webhooks configured."))
			return nil
		}
		result, err := services.Webhooks.Redeliver(cmd.Context())
		_, _ = fmt.Fprintf(out, "Redelivered %d dead letters, %d remaining\n", result.Delivered, result.Remaining)
		if err != nil {
			return NewCLIError("some dead letters are still undeliverable", "Check the endpoints in .pulse/webhooks.yaml", err)
		}
		return nil
	},
}

func init() {
	notifyCmd.AddCommand(notifyRedeliverCmd)
	for _, c := range []struct {
		cmd   *cobra.Command
		flags *reportFlags
	}{
		{insightsCmd, &insightsFlags},
		{warningsCmd, &warningsFlags},
		{wbsCmd, &wbsFlags},
		{flowCmd, &flowFlags},
		{notifyCmd, &notifyFlags},
	} {
		c.flags.register(c.cmd)
		RootCmd.AddCommand(c.cmd)
	}
}
