package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/rcliao/madlab/internal/domain"
)

// CSVExporter writes a header row in the selected language followed by one
// row per task.
type CSVExporter struct{}

func (CSVExporter) Export(w io.Writer, tasks []domain.ScheduledTask, opts Options) error {
	opts.defaults()

	writer := csv.NewWriter(w)
	if err := writer.Write(header(opts.Lang)); err != nil {
		return fmt.Errorf("could not write CSV header: %w", err)
	}
	for _, t := range tasks {
		if err := writer.Write(row(t, opts.Lang)); err != nil {
			return fmt.Errorf("could not write CSV row for task %s: %w", t.ID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("could not flush CSV: %w", err)
	}
	return nil
}
