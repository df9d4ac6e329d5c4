package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pulse/internal/infrastructure/config"
)

// resetFlags restores every package-level flag value. pflag only applies
// defaults at definition time, so values leak between Execute calls.
func resetFlags() {
	projectPath = ""
	logLevel = ""
	for _, f := range []*reportFlags{&insightsFlags, &warningsFlags, &wbsFlags, &flowFlags, &notifyFlags, &watchFlags, &dashboardFlags} {
		*f = reportFlags{}
	}
	auditVerify = false
	auditLimit = 20
	auditJSON = false
	serveAddr = ""
	serveWatch = true
	dashboardLive = true
}

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runCLIWithStderr(t, args...)
	return out, err
}

// runCLIWithStderr also returns stderr, where logs are written.
func runCLIWithStderr(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	RootCmd.SetOut(stdout)
	RootCmd.SetErr(stderr)
	err := executeContext(context.Background(), args...)
	return stdout.String(), stderr.String(), err
}

// executeContext runs the root command under ctx. Cobra only hands the root
// context to subcommands whose context is still unset, so a previous run
// would otherwise pin its context on every command it touched.
func executeContext(ctx context.Context, args ...string) error {
	setContext(ctx, RootCmd)
	RootCmd.SetArgs(args)
	return RootCmd.ExecuteContext(ctx)
}

func setContext(ctx context.Context, cmd *cobra.Command) {
	cmd.SetContext(ctx)
	for _, sub := range cmd.Commands() {
		setContext(ctx, sub)
	}
}

// withWorkspace returns a fresh directory with PULSE_ROOT cleared.
func withWorkspace(t *testing.T) string {
	t.Helper()
	t.Setenv(config.EnvRoot, "")
	t.Setenv(config.EnvDatabaseURL, "")
	t.Setenv(config.EnvLogLevel, "")
	return t.TempDir()
}

// withInitializedWorkspace runs 'pulse init apollo' in a fresh directory.
func withInitializedWorkspace(t *testing.T) string {
	t.Helper()
	dir := withWorkspace(t)
	if out, err := runCLI(t, "init", "apollo", "--project", dir); err != nil {
		t.Fatalf("init failed: %v\n%s", err, out)
	}
	return dir
}

func pulseFile(dir, name string) string {
	return filepath.Join(dir, ".pulse", filepath.FromSlash(name))
}
