package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hovering-clouds/acsengine/internal/driver"
)

// TextWriter writes one "<flow> <value>" line per heavy hitter under
// rootPath/<timestamp>/<task name>.txt.
type TextWriter struct {
	rootPath string
}

// NewTextWriter builds a text writer rooted at rootPath.
func NewTextWriter(rootPath string) *TextWriter {
	return &TextWriter{rootPath: rootPath}
}

func (w *TextWriter) GetInterval() time.Duration { return 0 }

func (w *TextWriter) Write(payload interface{}, timestamp, name string) error {
	reports, ok := payload.([]driver.Report)
	if !ok {
		return fmt.Errorf("invalid payload type for text writer: expected []driver.Report, got %T", payload)
	}

	dir := filepath.Join(w.rootPath, timestamp)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	path := filepath.Join(dir, name+".txt")
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file %q: %w", path, err)
	}
	defer file.Close()

	for _, r := range reports {
		if _, err := fmt.Fprintf(file, "%s %d\n", r.Flow, r.Value); err != nil {
			return fmt.Errorf("failed to write heavy hitter to file: %w", err)
		}
	}
	return nil
}
