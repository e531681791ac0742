package capture

import (
	"fmt"
	"io"

	"eisview/models"
	"eisview/utils"
)

// maxRawLogLine is far above anything the gateway sends. Longer lines are skipped like undecodable ones.
const maxRawLogLine = 64 * 1024

// RecordFromRawLog rebuilds a replay record from a serial raw log (.jsonl, one payload per line).
// Lines that don't decode are skipped and counted.
func RecordFromRawLog(reader io.Reader) (*models.ReplayRecord, int, error) {
	record := &models.ReplayRecord{
		Real:        []float64{},
		Imag:        []float64{},
		Frequencies: []*float64{},
		Time:        []*float64{},
	}

	skipped := 0
	err := utils.ReadLines(reader, maxRawLogLine, func(line []byte) {
		if len(line) == 0 {
			return
		}
		sample, err := models.Decode(line)
		if err != nil {
			skipped++
			return
		}
		record.Real = append(record.Real, sample.Real)
		record.Imag = append(record.Imag, sample.Imag)
		record.Frequencies = append(record.Frequencies, &sample.FrequencyHz)
		record.Time = append(record.Time, &sample.TimestampMs)
	}, func([]byte) {
		skipped++
	})
	if err != nil {
		return nil, skipped, fmt.Errorf("reading raw log: %w", err)
	}

	if record.Len() == 0 {
		return nil, skipped, &models.DataAvailabilityError{Reason: "raw log has no valid samples"}
	}
	return record, skipped, nil
}
