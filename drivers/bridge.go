package drivers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"eisview/config"
	"eisview/events"
)

// Bridge message types. The browser does the Web Bluetooth handshake and relays each notification.
const (
	bridgeHello  = "hello"
	bridgeReady  = "ready"
	bridgeSample = "sample"
	bridgeError  = "error"
)

type bridgeMessage struct {
	Type    string `json:"type"`
	Device  string `json:"device,omitempty"`
	Payload string `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

var errBridgeBusy = errors.New("a device session is already active")

// Bridge accepts one websocket at a time from a page that owns the BLE link to the sensor.
type Bridge struct {
	*config.BridgeConfig
	ingester Ingester
	eventHub *events.EventHub
	upgrader websocket.Upgrader

	mu     sync.Mutex
	active bool
	device string
}

func NewBridge(bridgeConfig *config.BridgeConfig, ingester Ingester, eventHub *events.EventHub) *Bridge {
	return &Bridge{
		BridgeConfig: bridgeConfig,
		ingester:     ingester,
		eventHub:     eventHub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Init has nothing to do, the handshake happens when the bridge page connects.
func (b *Bridge) Init() error {
	return nil
}

func (b *Bridge) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// Name is the device reported by the bridge, empty until a bridge has said hello.
func (b *Bridge) Name() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.device
}

func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !b.claim() {
		http.Error(w, errBridgeBusy.Error(), http.StatusConflict)
		return
	}
	defer b.release()

	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("bridge upgrade: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	device, err := b.handshake(conn)
	if err != nil {
		log.Warn().Err(err).Msg("bridge handshake failed")
		b.status(events.TransportStatus{Err: err.Error()})
		return
	}

	log.Printf("bridge connected to %s", device)
	b.status(events.TransportStatus{Connected: true, Device: device})

	if err := b.relay(conn); err != nil {
		log.Warn().Err(err).Msg("bridge closed")
		b.status(events.TransportStatus{Device: device, Err: err.Error()})
		return
	}
	log.Printf("bridge disconnected from %s", device)
	b.status(events.TransportStatus{Device: device})
}

func (b *Bridge) handshake(conn *websocket.Conn) (string, error) {
	if b.HandshakeTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(b.HandshakeTimeout))
	}

	var msg bridgeMessage
	if err := conn.ReadJSON(&msg); err != nil {
		return "", &TransportError{"handshake", err}
	}

	switch msg.Type {
	case bridgeHello:
	case bridgeError:
		return "", &TransportError{"handshake", errors.New(msg.Error)}
	default:
		return "", &TransportError{"handshake", fmt.Errorf("expected hello, got %q", msg.Type)}
	}

	device := msg.Device
	if device == "" {
		device = "ble device"
	}
	b.mu.Lock()
	b.device = device
	b.mu.Unlock()

	_ = conn.SetReadDeadline(time.Time{})
	if err := conn.WriteJSON(bridgeMessage{Type: bridgeReady}); err != nil {
		return "", &TransportError{"handshake", err}
	}
	return device, nil
}

// relay hands each notification to the ingester before reading the next, so two never overlap.
func (b *Bridge) relay(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return &TransportError{"read", err}
			}
			return nil
		}

		var msg bridgeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn().Err(err).Msg("bad bridge message")
			continue
		}

		switch msg.Type {
		case bridgeSample:
			// the session logs and counts decode failures itself
			_ = b.ingester.Ingest([]byte(msg.Payload))
		case bridgeError:
			return &TransportError{"device", errors.New(msg.Error)}
		default:
			log.Debug().Str("type", msg.Type).Msg("ignoring bridge message")
		}
	}
}

func (b *Bridge) claim() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active {
		return false
	}
	b.active = true
	return true
}

func (b *Bridge) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = false
	b.device = ""
}

func (b *Bridge) status(status events.TransportStatus) {
	if b.eventHub == nil {
		return
	}
	b.eventHub.Broadcast(&events.Event{Kind: events.TransportChanged, Timestamp: int(time.Now().UnixMilli()), Value: status})
}
