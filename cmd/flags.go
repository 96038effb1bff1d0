package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagBindings maps flag names to the configuration keys they override.
var flagBindings = map[string]string{
	"log-level":          "log.level",
	"log-format":         "log.format",
	"values":             "values.files",
	"set":                "values.set",
	"sanitize-html":      "values.sanitize_html",
	"normalize":          "values.normalize",
	"cache-timeout":      "render.cache_timeout",
	"cache-key":          "render.cache_key",
	"force-cache-update": "render.force_cache_update",
	"cache-backend":      "render.cache_backend",
	"cache-path":         "render.cache_path",
	"max-depth":          "render.max_depth",
	"strict":             "render.strict",
	"debounce":           "watch.debounce",
	"host":               "server.host",
	"port":               "server.port",
	"live-reload":        "server.live_reload",
}

// bindFlags binds the flags of the command being executed to their
// configuration keys. Binding happens at run time so that commands sharing
// a flag name do not steal each other's bindings.
func bindFlags(cmd *cobra.Command) error {
	for name, key := range flagBindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

func addValueFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("values", "f", nil, "YAML values file (repeatable, later files win)")
	cmd.Flags().StringArray("set", nil, "set a value on the command line (path.to.key=value, repeatable)")
	cmd.Flags().String("sanitize-html", "none", "sanitize HTML in values (none, strict, ugc)")
	cmd.Flags().String("normalize", "none", "Unicode normalisation of values (none, nfc)")
	AddFlagValidation(cmd, "sanitize-html", oneOf("none", "strict", "ugc"))
	AddFlagValidation(cmd, "normalize", oneOf("none", "nfc"))
}

func addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("cache-timeout", 0, "cache rendered output for this long (0 disables caching)")
	cmd.Flags().String("cache-key", "", "cache key (derived from template and values when empty)")
	cmd.Flags().Bool("force-cache-update", false, "refresh the cache entry on the first render")
	cmd.Flags().String("cache-backend", "none", "cache backend (none, memory, sqlite)")
	cmd.Flags().String("cache-path", ".twiglight/cache.db", "SQLite cache database path")
	cmd.Flags().Int("max-depth", 256, "maximum nesting depth of values")
	cmd.Flags().Bool("strict", false, "fail when placeholders stay unresolved")
	AddFlagValidation(cmd, "cache-backend", oneOf("none", "memory", "sqlite"))
}

func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("port", "p", 8080, "port to serve on")
	cmd.Flags().String("host", "localhost", "host to bind to")
	cmd.Flags().Bool("live-reload", true, "reload the browser when files change")
	AddFlagValidation(cmd, "port", ValidatePort)
}

func addWatchFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("debounce", 200*time.Millisecond, "wait this long for changes to settle")
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}
	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidatePort checks that portStr is a usable TCP port. Zero picks a free
// port.
func ValidatePort(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", portStr)
	}
	if port < 0 || port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", port)
	}
	return nil
}

func oneOf(choices ...string) func(string) error {
	return func(val string) error {
		for _, c := range choices {
			if strings.EqualFold(val, c) {
				return nil
			}
		}
		return fmt.Errorf("must be one of: %s", strings.Join(choices, ", "))
	}
}
