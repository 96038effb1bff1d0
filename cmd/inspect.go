package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conneroisu/twiglight/pkg/twiglight"
)

type placeholderReport struct {
	Path     string `json:"path"`
	Count    int    `json:"count"`
	Resolved bool   `json:"resolved"`
	Value    string `json:"value,omitempty"`
}

func newInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inspect [template]",
		Aliases: []string{"i"},
		Short:   "List the placeholders of a template",
		Long: `Inspect lists every distinct placeholder of the template in order of first
appearance, how often it occurs, and whether the values resolve it.

Examples:
  twiglight inspect page.tpl -f values.yml
  twiglight inspect page.tpl --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInspect,
	}

	addValueFlags(cmd)
	cmd.Flags().Int("max-depth", twiglight.DefaultMaxDepth, "maximum nesting depth of values")
	cmd.Flags().String("format", "table", "output format (table, json)")
	AddFlagValidation(cmd, "format", oneOf("table", "json"))
	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	p, err := newValuePipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	var path string
	if len(args) > 0 {
		path = args[0]
	}
	template, err := readTemplate(path, cmd.InOrStdin())
	if err != nil {
		return err
	}
	tree, err := p.loadValues()
	if err != nil {
		return err
	}

	reports, err := inspectTemplate(p.renderer(template), tree)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLACEHOLDER\tCOUNT\tSTATUS\tVALUE")
	for _, r := range reports {
		status := "unresolved"
		if r.Resolved {
			status = "resolved"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", twiglight.Placeholder(r.Path), r.Count, status, preview(r.Value))
	}
	return w.Flush()
}

// inspectTemplate groups the placeholder occurrences of r by path.
func inspectTemplate(r *twiglight.Renderer, tree twiglight.Tree) ([]placeholderReport, error) {
	resolutions, err := r.Resolve(tree)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	reports := make([]placeholderReport, 0)
	for _, res := range resolutions {
		var report placeholderReport
		switch v := res.(type) {
		case twiglight.Resolved:
			report = placeholderReport{Path: v.Path, Resolved: true, Value: v.Text}
		case twiglight.Unresolved:
			report = placeholderReport{Path: v.Path}
		}
		if i, ok := index[report.Path]; ok {
			reports[i].Count++
			continue
		}
		report.Count = 1
		index[report.Path] = len(reports)
		reports = append(reports, report)
	}
	return reports, nil
}

// preview shortens v to a single line for table output.
func preview(v string) string {
	const limit = 40
	runes := []rune(v)
	for i, r := range runes {
		if r == '\n' || r == '\r' {
			runes = append(runes[:i:i], '…')
			break
		}
	}
	if len(runes) > limit {
		runes = append(runes[:limit-1:limit-1], '…')
	}
	return string(runes)
}
