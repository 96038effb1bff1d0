package cmd

import (
	"github.com/spf13/cobra"

	"github.com/conneroisu/twiglight/internal/output"
)

func newRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "render [template]",
		Aliases: []string{"r"},
		Short:   "Render a template with values",
		Long: `Render replaces every {{dotted.path}} placeholder in the template with the
matching value. The template is read from stdin when omitted or "-".

Values come from YAML files (-f, later files win) and --set overrides
applied after them. Placeholders without a value are left as they are
unless --strict is given.

Examples:
  twiglight render page.tpl -f values.yml
  twiglight render page.tpl -f base.yml -f prod.yml -o out/page.html
  echo 'Hi {{user.name}}' | twiglight render --set user.name=Ada
  twiglight render page.tpl -f values.yml --cache-backend sqlite --cache-timeout 10m`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRender,
	}

	addValueFlags(cmd)
	addRenderFlags(cmd)
	cmd.Flags().StringP("output", "o", output.Stdout, `output file ("-" for stdout)`)
	return cmd
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	p, err := newPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	var template string
	if len(args) > 0 {
		template = args[0]
	}
	out, err := p.renderFile(ctx, template, cmd.InOrStdin())
	if err != nil {
		return err
	}

	dest, _ := cmd.Flags().GetString("output")
	if err := output.NewWriter(cmd.OutOrStdout()).Write(dest, out); err != nil {
		return err
	}
	if dest != output.Stdout && dest != "" {
		logger.Info(ctx, "Rendered template", "output", dest, "bytes", len(out))
	}
	return nil
}
