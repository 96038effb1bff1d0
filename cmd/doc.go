// Package cmd provides the command-line interface for twiglight.
//
// This package implements all CLI commands using the Cobra framework.
//
// # Available Commands
//
//   - render: Substitute values into a template and write the result
//   - flatten: Print the flattened dotted-path view of the values
//   - inspect: List the placeholders of a template and whether they resolve
//   - watch: Re-render whenever the template or value files change
//   - serve: Serve the rendered template with live reload
//   - version: Show build information
//
// # Command Examples
//
//	// Render a template with values from a file and an override
//	twiglight render page.tpl -f values.yml --set site.title=Home -o page.html
//
//	// Show what a values file flattens to
//	twiglight flatten -f values.yml --format json
//
//	// Fail when a placeholder has no value
//	twiglight render page.tpl -f values.yml --strict
//
//	// Preview in the browser with live reload
//	twiglight serve page.tpl -f values.yml --port 3000
//
// # Configuration
//
// Flags override TWIGLIGHT_* environment variables, which override the
// configuration file (.twiglight.yml or TWIGLIGHT_CONFIG_FILE).
package cmd
