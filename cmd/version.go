package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/twiglight/internal/version"
)

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display version information for twiglight including the version,
git commit, build time, Go version and target platform.

Examples:
  twiglight version              # Show version
  twiglight version --short      # Version only
  twiglight version --format json`,
		Args: cobra.NoArgs,
		RunE: runVersionCommand,
	}

	cmd.Flags().String("format", "text", "output format (text, json, yaml)")
	cmd.Flags().Bool("short", false, "show short version only")
	AddFlagValidation(cmd, "format", oneOf("text", "json", "yaml"))
	return cmd
}

func runVersionCommand(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	short, _ := cmd.Flags().GetBool("short")
	out := cmd.OutOrStdout()

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(version.GetBuildInfo())
	case "yaml":
		return yaml.NewEncoder(out).Encode(version.GetBuildInfo())
	default:
		if short {
			_, err := fmt.Fprintln(out, version.GetShortVersion())
			return err
		}
		return writeVersionText(out)
	}
}

func writeVersionText(out io.Writer) error {
	_, err := fmt.Fprintln(out, "twiglight "+version.GetShortVersion()+"\n"+version.GetDetailedVersion())
	return err
}
