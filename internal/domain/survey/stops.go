package survey

import (
	"encoding/json"
	"os"

	apperrors "github.com/yanqian/stop-survey/pkg/errors"
)

// LoadStops reads the stop configuration. Any failure is fatal for a run.
func LoadStops(path string) ([]StopConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfig, "read stops config", err)
	}
	var doc StopsFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfig, "parse stops config", err)
	}
	if len(doc.Stops) == 0 {
		return nil, apperrors.Wrap(apperrors.CodeConfig, "no stops in config", nil)
	}
	return doc.Stops, nil
}
