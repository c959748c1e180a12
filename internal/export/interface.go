package export

import (
	"fmt"
	"io"

	"github.com/skyfold/astro-session/internal"
)

// Exporter defines the interface for all report export formats
type Exporter interface {
	Export(report *internal.SessionReport, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "json":
		return &JSONExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "csv":
		return &CSVExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: json, yaml, md, csv)", format)
	}
}
