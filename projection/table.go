package projection

import (
	"strconv"

	"github.com/dustin/go-humanize"

	"eisview/models"
)

// TableColumns are the headings matching the cells FormatRow returns.
var TableColumns = []string{"Time (s)", "Frequency", "Real (Ω)", "Imag (Ω)", "|Z| (Ω)", "Phase (°)", "Humidity (%)"}

const absent = "-"

// FormatRows renders the cells of every row, keeping order.
func FormatRows(rows []models.TableRow) [][]string {
	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = FormatRow(row)
	}
	return cells
}

// FormatRow renders a row's cells. Only a missing humidity shows as "-", a real zero shows as "0.00".
func FormatRow(row models.TableRow) []string {
	humidity := absent
	if row.HumidityPct != nil {
		humidity = fixed2(*row.HumidityPct)
	}
	return []string{
		fixed2(row.TimeSec),
		humanize.SIWithDigits(row.FrequencyHz, 1, "Hz"),
		fixed2(row.Real),
		fixed2(row.Imag),
		fixed2(row.MagnitudeOhm),
		fixed2(row.PhaseDeg),
		humidity,
	}
}

func fixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
