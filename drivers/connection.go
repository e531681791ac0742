package drivers

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"eisview/events"
)

// Connection runs a driver on behalf of the dashboard: connect, report status, allow a retry after failure.
// Dropped links aren't retried automatically.
type Connection struct {
	driver   Driver
	eventHub *events.EventHub

	mu      sync.Mutex
	running bool
}

func NewConnection(driver Driver, eventHub *events.EventHub) *Connection {
	return &Connection{
		driver:   driver,
		eventHub: eventHub,
	}
}

func (c *Connection) Driver() Driver {
	return c.driver
}

func (c *Connection) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Connect does the driver handshake and starts delivering payloads in the background. It's a no-op while the
// driver is already running. A failed handshake leaves the connection idle so Connect can be called again.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	if err := c.driver.Init(); err != nil {
		c.mu.Unlock()
		log.Warn().Err(err).Msg("couldn't connect")
		c.status(events.TransportStatus{Err: err.Error()})
		return err
	}
	c.running = true
	c.mu.Unlock()

	// drivers without a name yet (the bridge) report their own status once the device shows up
	if name := c.driver.Name(); name != "" {
		c.status(events.TransportStatus{Connected: true, Device: name})
	}

	go func() {
		err := c.driver.Run(ctx)

		c.mu.Lock()
		c.running = false
		c.mu.Unlock()

		if err != nil {
			log.Error().Err(err).Msg("driver stopped")
			c.status(events.TransportStatus{Err: err.Error()})
			return
		}
		c.status(events.TransportStatus{})
	}()
	return nil
}

func (c *Connection) status(status events.TransportStatus) {
	if c.eventHub == nil {
		return
	}
	c.eventHub.Broadcast(&events.Event{Kind: events.TransportChanged, Timestamp: int(time.Now().UnixMilli()), Value: status})
}
