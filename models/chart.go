package models

// Axis describes one axis of a chart as the browser should draw it.
type Axis struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Logarithmic bool   `json:"logarithmic,omitempty"`
	Right       bool   `json:"right,omitempty"`
}

type Chart struct {
	// key is the identifier used in element ids and script calls.
	key string
	// title shown above the canvas
	title string
	// series to display in this chart
	series []*Series
	// x is the horizontal axis, y are the vertical axes referenced by Series.AxisID
	x Axis
	y []Axis
	// layoutPriority determines what order in the ui this chart should be shown
	layoutPriority uint8
}

func NewChart(
	key string,
	title string,
	series []*Series,
	x Axis,
	y []Axis,
	layoutPriority uint8,
) *Chart {
	return &Chart{
		key,
		title,
		series,
		x,
		y,
		layoutPriority,
	}
}

func (c *Chart) Key() string {
	return c.key
}

func (c *Chart) Title() string {
	return c.title
}

func (c *Chart) Series() []*Series {
	return c.series
}

func (c *Chart) X() Axis {
	return c.x
}

func (c *Chart) Y() []Axis {
	return c.y
}

func (c *Chart) LayoutPriority() uint8 {
	return c.layoutPriority
}
