package store

import "fmt"

// Capacities sizes each of a session's buffers independently.
type Capacities struct {
	Bode     int
	Nyquist  int
	Humidity int
	Table    int
}

type Profile string

const (
	DesktopProfile Profile = "desktop"
	MobileProfile  Profile = "mobile"
)

var profiles = map[Profile]Capacities{
	DesktopProfile: {Bode: 100, Nyquist: 100, Humidity: 100, Table: 50},
	MobileProfile:  {Bode: 200, Nyquist: 200, Humidity: 200, Table: 100},
}

// CapacitiesFor returns the buffer sizes of a named profile.
func CapacitiesFor(profile Profile) (Capacities, error) {
	c, ok := profiles[profile]
	if !ok {
		return Capacities{}, fmt.Errorf("unknown buffer profile %q", profile)
	}
	return c, nil
}

// Override replaces any capacity in c with the matching non-zero value in o.
func (c Capacities) Override(o Capacities) Capacities {
	if o.Bode > 0 {
		c.Bode = o.Bode
	}
	if o.Nyquist > 0 {
		c.Nyquist = o.Nyquist
	}
	if o.Humidity > 0 {
		c.Humidity = o.Humidity
	}
	if o.Table > 0 {
		c.Table = o.Table
	}
	return c
}
