package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pulse/internal/infrastructure/config"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	projectPath string
	logLevel    string
	logger      = slog.Default()
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "pulse",
	Version: Version,
	Short:   "Portfolio insights and ranked delivery warnings",
	Long: `Pulse reads delivery telemetry for a portfolio of projects and
turns it into a short, ranked list of insights. It answers:
1. Which plans are slipping?
2. Where is work stuck?
3. What should leadership look at first?`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnv()
		l, err := newLogger(cmd.ErrOrStderr(), logLevel)
		if err != nil {
			return err
		}
		logger = l
		slog.SetDefault(l)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	err := RootCmd.Execute()
	if err != nil {
		printError(RootCmd.ErrOrStderr(), MapError(err))
	}
	return err
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&projectPath, "project", "C", "", "Workspace root containing .pulse (overridden by "+config.EnvRoot+")")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default warn, or "+config.EnvLogLevel+")")
}

// newLogger builds the stderr text logger. The flag wins over the
// environment; the CLI is quiet by default.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	if level == "" {
		level = strings.TrimSpace(os.Getenv(config.EnvLogLevel))
	}
	if level == "" {
		level = "warn"
	}
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv})), nil
}
