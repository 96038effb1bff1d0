package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/twiglight/pkg/twiglight"
)

func newFlattenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flatten",
		Short: "Print the dotted-path view of the values",
		Long: `Flatten loads the values exactly as render would and prints every
dotted path with the text it substitutes.

Examples:
  twiglight flatten -f values.yml
  twiglight flatten -f values.yml --set user.name=Ada --format json`,
		Args: cobra.NoArgs,
		RunE: runFlatten,
	}

	addValueFlags(cmd)
	cmd.Flags().Int("max-depth", twiglight.DefaultMaxDepth, "maximum nesting depth of values")
	cmd.Flags().String("format", "yaml", "output format (yaml, json)")
	AddFlagValidation(cmd, "format", oneOf("yaml", "json"))
	return cmd
}

func runFlatten(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	p, err := newValuePipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	tree, err := p.loadValues()
	if err != nil {
		return err
	}
	flat, err := twiglight.FlattenWithLimit(tree, cfg.Render.MaxDepth)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(flat)
	default:
		if len(flat) == 0 {
			_, err := fmt.Fprintln(out, "{}")
			return err
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]string(flat)); err != nil {
			return err
		}
		return enc.Close()
	}
}
