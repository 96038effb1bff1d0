package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/twiglight/internal/server"
	"github.com/conneroisu/twiglight/internal/watcher"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve <template>",
		Aliases: []string{"s"},
		Short:   "Serve the rendered template with live reload",
		Long: `Serve renders the template on every request to / and, with live reload
enabled, reloads connected browsers whenever the template or values change.

Endpoints:
  /          the rendered template
  /ws        live reload WebSocket
  /healthz   health check (JSON)

Examples:
  twiglight serve page.html -f values.yml
  twiglight serve page.html -f values.yml --port 3000 --live-reload=false`,
		Args: cobra.ExactArgs(1),
		RunE: runServe,
	}

	addValueFlags(cmd)
	addRenderFlags(cmd)
	addWatchFlags(cmd)
	addServerFlags(cmd)
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := newPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	template := args[0]
	srv := server.New(cfg.Server, func(ctx context.Context) (string, error) {
		return p.renderFile(ctx, template, nil)
	}, logger)

	if cfg.Server.LiveReload {
		fw, err := watcher.NewFileWatcher(cfg.Watch.Debounce, logger)
		if err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
		defer fw.Stop()

		fw.AddFilter(watcher.NoBackupFilter)
		fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
			reason := filepath.Base(events[0].Path) + " " + events[0].Type.String()
			logger.Info(ctx, "Reloading browsers", "reason", reason, "clients", srv.Clients())
			srv.Reload(reason)
			return nil
		})
		if err := fw.WatchFiles(p.watchedFiles(template)...); err != nil {
			return err
		}
		fw.Start(ctx)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s at http://%s\n", template, srv.Addr())
	return srv.Start(ctx)
}
