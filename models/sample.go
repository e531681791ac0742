package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

var ErrMalformedPayload = errors.New("malformed payload")

// maxPayloadEcho caps how much of a bad payload ends up in error messages and logs.
const maxPayloadEcho = 96

// RawSample is one decoded impedance reading as it arrived from the device.
type RawSample struct {
	// TimestampMs is the device clock in milliseconds.
	TimestampMs float64
	FrequencyHz float64
	Real        float64
	Imag        float64
	// HumidityPct is nil when the device didn't report humidity. A reported zero is kept as a pointer to 0.
	HumidityPct *float64
}

// wireSample mirrors the JSON the sensor sends. Pointers let us tell "missing" apart from zero.
type wireSample struct {
	Timestamp *float64 `json:"timestamp"`
	Freq      *float64 `json:"freq"`
	Real      *float64 `json:"real"`
	Imag      *float64 `json:"imag"`
	Humidity  *float64 `json:"humidity"`
}

// DecodeError is returned when an inbound payload can't be turned into a RawSample. The whole message is dropped.
type DecodeError struct {
	Payload string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error decoding payload %q: %v", e.Payload, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode parses one JSON payload of the form {"timestamp","freq","real","imag","humidity"?}.
func Decode(payload []byte) (*RawSample, error) {
	payload = bytes.TrimSpace(payload)

	var wire wireSample
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, NewDecodeError(payload, fmt.Errorf("%w: %v", ErrMalformedPayload, err))
	}

	required := []struct {
		name  string
		value *float64
	}{
		{"timestamp", wire.Timestamp},
		{"freq", wire.Freq},
		{"real", wire.Real},
		{"imag", wire.Imag},
	}
	for _, field := range required {
		if field.value == nil {
			return nil, NewDecodeError(payload, fmt.Errorf("%w: missing field %s", ErrMalformedPayload, field.name))
		}
	}

	return &RawSample{
		TimestampMs: *wire.Timestamp,
		FrequencyHz: *wire.Freq,
		Real:        *wire.Real,
		Imag:        *wire.Imag,
		HumidityPct: wire.Humidity,
	}, nil
}

// NewDecodeError keeps at most maxPayloadEcho bytes of the payload, cut on a rune boundary.
func NewDecodeError(payload []byte, err error) *DecodeError {
	echo := payload
	if len(echo) > maxPayloadEcho {
		cut := maxPayloadEcho
		for cut > 0 && !utf8.RuneStart(echo[cut]) {
			cut--
		}
		echo = append(echo[:cut:cut], "…"...)
	}
	return &DecodeError{Payload: string(echo), Err: err}
}
