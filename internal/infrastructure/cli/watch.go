package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pulse/internal/infrastructure/watch"
	"github.com/felixgeelhaar/pulse/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/pulse/pkg/application"
)

var watchFlags reportFlags

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate the report whenever files under .pulse change",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadInitializedServices(cmd.Context())
		if err != nil {
			return MapError(err)
		}
		defer func() { _ = services.Close() }()

		req, err := watchFlags.request(services)
		if err != nil {
			return err
		}
		req.Actor = "watch"

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		var mu sync.Mutex
		emit := func(paths []string, r *application.Report, err error) {
			mu.Lock()
			defer mu.Unlock()
			printRefresh(out, paths, r, err)
		}

		r, err := services.Refresh(ctx, req)
		if err != nil {
			return MapError(err)
		}
		emit(nil, r, nil)
		_, _ = fmt.Fprintf(out, "Watching %s for changes (Ctrl+C to stop)\n", services.Workspace.Repo.Dir())

		return runWatch(ctx, services, req, emit)
	},
}

// runWatch refreshes the report on every debounced batch of changes under
// .pulse until ctx is done.
func runWatch(ctx context.Context, services *wiring.AppServices, req application.Request, onReport func([]string, *application.Report, error)) error {
	cfg := services.Workspace.Config.Watch
	w, err := watch.NewFSWatcher(cfg.Debounce, watch.NewPatternFilter(cfg.Include, cfg.Exclude), func(paths []string) {
		r, err := services.Refresh(ctx, req)
		if onReport != nil {
			onReport(paths, r, err)
		}
	})
	if err != nil {
		return err
	}
	if err := w.WatchRecursive(services.Workspace.Repo.Dir()); err != nil {
		return err
	}
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func printRefresh(out io.Writer, paths []string, r *application.Report, err error) {
	if len(paths) > 0 {
		names := make([]string, len(paths))
		for i, p := range paths {
			names[i] = relToPulse(p)
		}
		_, _ = fmt.Fprintln(out, mutedStyle.Render("changed: "+strings.Join(names, ", ")))
	}
	if err != nil {
		_, _ = fmt.Fprintln(out, errorStyle.Render("refresh failed: "+MapError(err).Error()))
		return
	}
	_, _ = fmt.Fprintf(out, "%s %s %s\n", r.GeneratedAt.Local().Format("15:04:05"), severityBadge(r.Severity), r.Narrative)
}

func relToPulse(path string) string {
	slashed := strings.ReplaceAll(path, "\\", "/")
	if i := strings.LastIndex(slashed, "/.pulse/"); i >= 0 {
		return slashed[i+len("/.pulse/"):]
	}
	return path
}

func init() {
	watchFlags.register(watchCmd)
	RootCmd.AddCommand(watchCmd)
}
