package drivers

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotConnected = errors.New("device not connected")

// Driver is a transport that delivers device payloads to an Ingester.
type Driver interface {
	// Init performs the connection handshake. It can be called again after a failure.
	Init() error
	// Run delivers payloads until the link drops or ctx is cancelled. Payloads are handed over one at a time.
	Run(ctx context.Context) error
	// Name is shown on the dashboard while connected.
	Name() string
}

// Ingester consumes one raw payload per device notification. *store.Session is the usual one.
type Ingester interface {
	Ingest(payload []byte) error
}

// Dropper is implemented by ingesters that account for payloads a transport had to discard before decoding.
type Dropper interface {
	Drop(err error)
}

// TransportError is a connection or permission failure. The user can retry by connecting again.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
