// Package rawoutput implements the raw-output file format of §6: one UTF-8
// text file per model response, written before parsing is attempted
// (resolver.RawOutputWriter), so a crash in parse can never lose the raw
// body. Grounded on DESIGN NOTES "file naming must include a random suffix
// to avoid collisions under concurrent chunk processing" — uses
// github.com/google/uuid the way the teacher generates ids (models.go,
// *uuid.UUID fields) for exactly that suffix.
package rawoutput

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Writer persists raw model output under Dir. It implements
// resolver.RawOutputWriter without importing that package, to avoid a
// dependency cycle (resolver depends on the interface shape only).
type Writer struct {
	Dir      string
	Metadata string
	Format   string
}

// New builds a Writer rooted at dir, creating it if necessary.
func New(dir, metadata, format string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("rawoutput: creating dir %s: %w", dir, err)
	}
	return &Writer{Dir: dir, Metadata: metadata, Format: format}, nil
}

// Write renders raw into the documented header/body/footer format and
// saves it under a timestamped, randomly-suffixed filename, returning the
// path written.
func (w *Writer) Write(raw string) (string, error) {
	now := time.Now().UTC()
	suffix := uuid.New().String()[:8]
	name := fmt.Sprintf("raw_output_%s_%s.txt", now.Format("20060102_150405"), suffix)
	path := filepath.Join(w.Dir, name)

	content := fmt.Sprintf(
		"=== Raw Model Output ===\n"+
			"Timestamp: %s\n"+
			"Metadata: %s\n"+
			"Format: %s\n"+
			"Content-Length: %d\n"+
			"=== Output Content ===\n"+
			"%s\n"+
			"=== End Output ===\n",
		now.Format(time.RFC3339), w.Metadata, w.Format, len(raw), raw,
	)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("rawoutput: writing %s: %w", path, err)
	}
	return path, nil
}
