package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/skyfold/astro-session/internal"
)

// CSVExporter exports the RMS timeline as CSV, one row per bucket, for
// spreadsheet plotting. Buckets with no included frames keep empty RMS cells
// so a chart shows a gap, not a zero.
type CSVExporter struct{}

// Export writes the RMS timeline rows
func (e *CSVExporter) Export(report *internal.SessionReport, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"start", "end", "ra_rms", "dec_rms", "total_rms", "samples", "excluded"}); err != nil {
		return err
	}
	for _, b := range report.Buckets {
		row := []string{
			b.Start.Format("2006-01-02T15:04:05"),
			b.End.Format("2006-01-02T15:04:05"),
			"", "", "",
			strconv.Itoa(b.SampleCount),
			strconv.Itoa(b.ExcludedCount),
		}
		if b.RMS != nil {
			row[2] = fmt.Sprintf("%.4f", b.RMS.RA)
			row[3] = fmt.Sprintf("%.4f", b.RMS.Dec)
			row[4] = fmt.Sprintf("%.4f", b.RMS.Total)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Extension returns the file extension for this format
func (e *CSVExporter) Extension() string {
	return "csv"
}
