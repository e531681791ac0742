package models

import (
	"errors"
	"fmt"
)

var ErrNoReplayData = errors.New("no valid impedance data found")

// ReplayRecord is a previously captured run. Frequencies and Time are parallel to Real/Imag and may hold nulls.
type ReplayRecord struct {
	Real        []float64  `json:"real"`
	Imag        []float64  `json:"imag"`
	Frequencies []*float64 `json:"frequencies,omitempty"`
	Time        []*float64 `json:"time,omitempty"`
}

// DataAvailabilityError means there's nothing usable to replay. It's fatal to the replay view.
type DataAvailabilityError struct {
	Reason string
}

func (e *DataAvailabilityError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNoReplayData, e.Reason)
}

func (e *DataAvailabilityError) Unwrap() error {
	return ErrNoReplayData
}

// Validate checks the record has real/imag arrays, at least one axis, and matching lengths.
func (r *ReplayRecord) Validate() error {
	if r == nil {
		return &DataAvailabilityError{"no record"}
	}
	if r.Real == nil || r.Imag == nil {
		return &DataAvailabilityError{"missing real or imag"}
	}
	if r.Frequencies == nil && r.Time == nil {
		return &DataAvailabilityError{"missing frequencies and time"}
	}
	n := len(r.Real)
	if len(r.Imag) != n {
		return &DataAvailabilityError{fmt.Sprintf("imag has %d values, real has %d", len(r.Imag), n)}
	}
	if r.Frequencies != nil && len(r.Frequencies) != n {
		return &DataAvailabilityError{fmt.Sprintf("frequencies has %d values, real has %d", len(r.Frequencies), n)}
	}
	if r.Time != nil && len(r.Time) != n {
		return &DataAvailabilityError{fmt.Sprintf("time has %d values, real has %d", len(r.Time), n)}
	}
	return nil
}

// Len is the number of samples in the record.
func (r *ReplayRecord) Len() int {
	return len(r.Real)
}

// FrequencyAt returns the frequency at i, or nil when the record has no frequency axis or the entry is null.
func (r *ReplayRecord) FrequencyAt(i int) *float64 {
	if i < 0 || i >= len(r.Frequencies) {
		return nil
	}
	return r.Frequencies[i]
}

// TimeAt returns the timestamp (ms) at i, or nil.
func (r *ReplayRecord) TimeAt(i int) *float64 {
	if i < 0 || i >= len(r.Time) {
		return nil
	}
	return r.Time[i]
}
