package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	ds "github.com/starfederation/datastar-go/datastar"

	"eisview/events"
	"eisview/store"
	"eisview/web"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	renderer Renderer
	eventHub *events.EventHub
	handler  *http.ServeMux
}

func NewServer(renderer Renderer, eventHub *events.EventHub, pages ...Page) *Server {
	s := &Server{
		renderer: renderer,
		eventHub: eventHub,
	}

	handler := http.NewServeMux()
	handler.HandleFunc("GET /{$}", s.IndexHandler)
	handler.HandleFunc("GET /tick", s.TickHandler)
	handler.Handle("GET /static/", http.FileServer(http.FS(web.Static)))

	for _, page := range append([]Page{renderer}, pages...) {
		for path, pageHandler := range page.Handlers() {
			handler.HandleFunc(path, pageHandler)
		}
	}

	s.handler = handler

	return s
}

// Handle mounts an extra handler, e.g. the device bridge websocket.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.handler.Handle(pattern, handler)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Start serves until ctx is cancelled. Open SSE streams are closed with it.
func (s *Server) Start(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:        addr,
		Handler:     s.handler,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("couldn't shut down server cleanly: %s", err)
		}
	})
	defer stop()

	log.Printf("listening on %s …", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// IndexHandler is the main entrypoint for the UI
func (s *Server) IndexHandler(w http.ResponseWriter, _ *http.Request) {
	err := s.renderer.Templates().ExecuteTemplate(w, "index", s.renderer.Data())
	if err != nil {
		log.Printf("couldn't execute template for index %s", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// TickHandler streams chart and table frames at the dashboard framerate, plus signal patches as events arrive.
func (s *Server) TickHandler(w http.ResponseWriter, r *http.Request) {
	clientID := getClientID(w, r)
	sse := ds.NewSSE(w, r)

	log.Debug().Str("client", clientID).Msg("tick stream opened")
	defer func() { log.Debug().Str("client", clientID).Msg("tick stream closed") }()

	var eventsCh <-chan *events.Event
	if s.eventHub != nil {
		_, ch, cancel := s.eventHub.Subscribe()
		defer cancel()
		eventsCh = ch
	}

	ctx := r.Context()
	ticker := time.NewTicker(1000 / store.DASHBOARD_FRAMERATE * time.Millisecond)
	defer ticker.Stop()

	// nothing has been drawn on this stream yet
	version := ^uint64(0)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventsCh:
			if !ok {
				eventsCh = nil
				continue
			}
			patch := s.renderer.GeneratePatchOnEvent(event)
			if patch == nil {
				continue
			}
			if err := patch(sse); err != nil {
				log.Printf("error patching %s event: %s", event.Kind, err)
				return
			}
		case <-ticker.C:
			var err error
			version, err = s.renderer.OnTick(sse, version)
			if err != nil {
				log.Printf("error running renderer on tick: %s", err)
				return
			}
		}
	}
}
