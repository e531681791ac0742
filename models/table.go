package models

// TableRow is one row of the live table, in display units. No markup.
type TableRow struct {
	TimeSec      float64
	FrequencyHz  float64
	Real         float64
	Imag         float64
	MagnitudeOhm float64
	PhaseDeg     float64
	HumidityPct  *float64
}

// RowFrom builds the table row for a derived point.
func RowFrom(p DerivedPoint) TableRow {
	return TableRow{
		TimeSec:      p.TimeSec,
		FrequencyHz:  p.FrequencyHz,
		Real:         p.Real,
		Imag:         p.Imag,
		MagnitudeOhm: p.MagnitudeOhm,
		PhaseDeg:     p.PhaseDeg,
		HumidityPct:  p.HumidityPct,
	}
}
