package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pulse/internal/infrastructure/sse"
	"github.com/felixgeelhaar/pulse/pkg/application"
)

var dashboardFlags reportFlags

var dashboardLive bool

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadInitializedServices(cmd.Context())
		if err != nil {
			return MapError(err)
		}
		defer func() { _ = services.Close() }()

		req, err := dashboardFlags.request(services)
		if err != nil {
			return err
		}
		if os.Getenv("PULSE_SKIP_DASHBOARD_RUN") == "true" {
			return nil
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		p := tea.NewProgram(newDashboardModel(func(ctx context.Context) (*application.Report, error) {
			return services.Insights.Generate(ctx, req)
		}), tea.WithContext(ctx))

		if dashboardLive {
			events, unsubscribe := services.Hub.Subscribe()
			defer unsubscribe()
			go func() {
				for e := range events {
					if r, ok := e.Data.(*application.Report); ok && e.Type == sse.TypeReport {
						p.Send(reportMsg{report: r})
					}
				}
			}()
			go func() {
				if err := runWatch(ctx, services, req, nil); err != nil {
					p.Send(reportMsg{err: err})
				}
			}()
		}

		if _, err := p.Run(); err != nil && ctx.Err() == nil {
			return fmt.Errorf("dashboard run failed: %w", err)
		}
		return nil
	},
}

func init() {
	dashboardFlags.register(dashboardCmd)
	dashboardCmd.Flags().BoolVar(&dashboardLive, "live", true, "Reload when files under .pulse change")
	RootCmd.AddCommand(dashboardCmd)
}

// Styles
var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	PaddingLeft(1).
	PaddingRight(1)

type reportMsg struct {
	report *application.Report
	err    error
}

type dashboardModel struct {
	table    table.Model
	generate func(context.Context) (*application.Report, error)
	report   *application.Report
	err      error
	loading  bool
}

func newDashboardModel(generate func(context.Context) (*application.Report, error)) dashboardModel {
	columns := []table.Column{
		{Title: "Severity", Width: 8},
		{Title: "Insight", Width: 44},
		{Title: "ID", Width: 20},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(8),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229"))
	t.SetStyles(s)

	return dashboardModel{table: t, generate: generate, loading: true}
}

func (m dashboardModel) refresh() tea.Cmd {
	generate := m.generate
	return func() tea.Msg {
		r, err := generate(context.Background())
		return reportMsg{report: r, err: err}
	}
}

func (m dashboardModel) Init() tea.Cmd { return m.refresh() }

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, m.refresh()
		}
	case reportMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.report = msg.report
			m.table.SetRows(insightRows(msg.report))
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func insightRows(r *application.Report) []table.Row {
	rows := make([]table.Row, 0, len(r.Insights))
	for _, in := range r.Insights {
		rows = append(rows, table.Row{strings.ToUpper(string(in.Severity)), in.Title, in.ID})
	}
	return rows
}

func (m dashboardModel) View() string {
	if m.report == nil {
		if m.err != nil {
			return fmt.Sprintf("Error loading dashboard: %v\nPress q to quit.", MapError(m.err))
		}
		return "Loading portfolio pulse...\n"
	}
	r := m.report

	header := headerStyle.Render("Portfolio pulse") + " " + severityBadge(r.Severity)
	sub := mutedStyle.Render(fmt.Sprintf("window %dd, horizon %s, generated %s",
		r.Days, r.Horizon, r.GeneratedAt.Local().Format("15:04:05")))

	detail := ""
	if i := m.table.Cursor(); i >= 0 && i < len(r.Insights) {
		in := r.Insights[i]
		detail = in.Body
		if in.Href != "" {
			detail += "\n" + mutedStyle.Render("-> "+in.Href)
		}
	}

	status := ""
	switch {
	case m.err != nil:
		status = errorStyle.Render("refresh failed: " + MapError(m.err).Error())
	case m.loading:
		status = mutedStyle.Render("refreshing...")
	case len(r.Degraded) > 0:
		status = mediumStyle.Render("degraded: " + strings.Join(r.Degraded, ", "))
	}

	return baseStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			sub,
			"",
			r.Narrative,
			"",
			m.table.View(),
			"",
			detail,
			status,
			"\n[q] Quit  [r] Refresh  [Up/Down] Navigate",
		),
	) + "\n"
}
