package export

import (
	"encoding/json"
	"io"

	"github.com/skyfold/astro-session/internal"
)

// JSONExporter exports reports as indented JSON
type JSONExporter struct{}

// Export writes the full report as one JSON document
func (e *JSONExporter) Export(report *internal.SessionReport, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
