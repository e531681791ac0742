package handlers

import (
	"html/template"
	"net/http"

	ds "github.com/starfederation/datastar-go/datastar"

	"eisview/events"
)

// Page contributes routes to the server.
type Page interface {
	Handlers() map[string]func(w http.ResponseWriter, r *http.Request)
}

// Renderer is the page served at / and driven by /tick.
type Renderer interface {
	Page
	Templates() *template.Template
	Data() map[string]interface{}
	// GeneratePatchOnEvent returns nil for events the page doesn't show.
	GeneratePatchOnEvent(event *events.Event) func(*ds.ServerSentEventGenerator) error
	// OnTick draws the current state unless it's still at lastVersion, and returns the version drawn.
	OnTick(sse *ds.ServerSentEventGenerator, lastVersion uint64) (uint64, error)
}
