package models

type Series struct {
	// key is the identifier the chart sink uses to address this dataset.
	key string
	// label is the legend text.
	label string
	// unit of the y values.
	unit string
	// colour as 3 byte hex with the # prefix.
	colour string
	// axisID is the y axis this series is drawn against.
	axisID string
	// showLine joins the points, otherwise only markers are drawn.
	showLine bool
}

func NewSeries(key, label, unit, colour, axisID string, showLine bool) *Series {
	return &Series{
		key,
		label,
		unit,
		colour,
		axisID,
		showLine,
	}
}

func (s *Series) Key() string {
	return s.key
}

func (s *Series) Label() string {
	return s.label
}

func (s *Series) Unit() string {
	return s.unit
}

func (s *Series) Colour() string {
	return s.colour
}

func (s *Series) AxisID() string {
	return s.axisID
}

func (s *Series) ShowLine() bool {
	return s.showLine
}
