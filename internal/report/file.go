package report

import (
	"encoding/json"
	"fmt"

	"github.com/google/renameio/v2"
)

// WriteFile writes the report as indented JSON at path. The write is
// atomic so pipeline consumers never observe a half-written artifact.
func WriteFile(path string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal: %w", err)
	}
	data = append(data, '\n')

	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}
