// Package output writes rendered results to files or standard output.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// Stdout is the path that selects standard output.
const Stdout = "-"

// Writer writes rendered documents. Files are replaced atomically so that
// readers never observe a partial render.
type Writer struct {
	stdout io.Writer
}

// NewWriter returns a Writer that sends Stdout paths to stdout.
func NewWriter(stdout io.Writer) *Writer {
	if stdout == nil {
		stdout = os.Stdout
	}
	return &Writer{stdout: stdout}
}

// Write stores content at path, creating parent directories. An empty path
// or Stdout writes to the Writer's stdout.
func (w *Writer) Write(path, content string) error {
	if path == "" || path == Stdout {
		_, err := io.WriteString(w.stdout, content)
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := atomic.WriteFile(path, strings.NewReader(content)); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
