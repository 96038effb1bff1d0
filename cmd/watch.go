package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	twigerrors "github.com/conneroisu/twiglight/internal/errors"
	"github.com/conneroisu/twiglight/internal/output"
	"github.com/conneroisu/twiglight/internal/watcher"
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch <template>",
		Aliases: []string{"w"},
		Short:   "Re-render whenever the template or values change",
		Long: `Watch renders the template once, then again every time the template, a
values file or a configured watch path changes. Failed renders are
reported and the previous output is kept.

Examples:
  twiglight watch page.tpl -f values.yml -o page.html
  twiglight watch page.tpl -f values.yml --debounce 500ms`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}

	addValueFlags(cmd)
	addRenderFlags(cmd)
	addWatchFlags(cmd)
	cmd.Flags().StringP("output", "o", output.Stdout, `output file ("-" for stdout)`)
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
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
	dest, _ := cmd.Flags().GetString("output")
	writer := output.NewWriter(cmd.OutOrStdout())
	handler := twigerrors.NewErrorHandler(logger)

	rerender := func(ctx context.Context) error {
		out, err := p.renderFile(ctx, template, nil)
		if err != nil {
			return err
		}
		return writer.Write(dest, out)
	}

	if err := rerender(ctx); err != nil {
		return err
	}

	fw, err := watcher.NewFileWatcher(cfg.Watch.Debounce, logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Stop()

	fw.AddFilter(watcher.NoBackupFilter)
	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		for _, event := range events {
			logger.Debug(ctx, "File changed", "path", event.Path, "type", event.Type.String())
		}
		if err := rerender(ctx); err != nil {
			handler.Handle(ctx, markRecoverable(err))
			return nil
		}
		logger.Info(ctx, "Re-rendered template", "template", template, "changes", len(events))
		return nil
	})
	if err := fw.WatchFiles(p.watchedFiles(template)...); err != nil {
		return err
	}

	fw.Start(ctx)
	logger.Info(ctx, "Watching for changes", "files", len(p.watchedFiles(template)))
	<-ctx.Done()
	return nil
}

// markRecoverable flags err as recoverable so that a failed re-render is
// reported as a warning.
func markRecoverable(err error) error {
	var te *twigerrors.TwigError
	if errors.As(err, &te) {
		te.Recoverable = true
		return te
	}
	return twigerrors.NewRenderError(twigerrors.ErrCodeInternalError, "re-render failed", err)
}
