package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"eisview/models"
)

// LoadRecordFile reads a replay record saved as JSON ({"real":[],"imag":[],"frequencies":[],"time":[]}).
func LoadRecordFile(path string) (*models.ReplayRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &models.DataAvailabilityError{Reason: fmt.Sprintf("no record at %s", path)}
		}
		return nil, err
	}

	var record *models.ReplayRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, &models.DataAvailabilityError{Reason: fmt.Sprintf("invalid record %s: %v", path, err)}
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return record, nil
}

func WriteRecordFile(path string, record *models.ReplayRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
