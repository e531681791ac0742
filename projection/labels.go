package projection

import (
	"fmt"
	"math"
	"strconv"
)

// FormatFrequencyLabel renders a compact axis label: 1500000 -> "1.5M", 2500 -> "3k", 999 -> "999", nil -> "".
func FormatFrequencyLabel(hz *float64) string {
	if hz == nil {
		return ""
	}
	v := *hz
	switch {
	case v >= 1e6:
		return strconv.FormatFloat(math.Round(v/1e6*10)/10, 'f', 1, 64) + "M"
	case v >= 1e3:
		return strconv.FormatFloat(math.Round(v/1e3), 'f', 0, 64) + "k"
	default:
		return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	}
}

// FormatTimeLabel renders a replay time axis label, nil -> "".
func FormatTimeLabel(ms *float64) string {
	if ms == nil {
		return ""
	}
	return fmt.Sprintf("%s ms", strconv.FormatFloat(*ms, 'f', -1, 64))
}
