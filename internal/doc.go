// Package internal contains the implementation packages behind the
// twiglight CLI.
//
// # Package Organization
//
//   - cache: In-memory LRU and SQLite stores for rendered output
//   - config: Viper-backed configuration with defaults and validation
//   - errors: Typed errors with codes, file context and a reporting handler
//   - logging: Structured logging over log/slog
//   - output: Atomic file output and stdout
//   - server: Preview server with WebSocket live reload
//   - values: Value file loading, --set overrides, sanitizing and normalising
//   - version: Build information
//   - watcher: Debounced file system monitoring
//
// The substitution engine itself lives in pkg/twiglight so that other
// modules can import it.
package internal
