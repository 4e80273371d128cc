package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/jaminalder/time-travel-tic-tac-toe/internal/app"
)

const defaultHeartbeat = 15 * time.Second

// Options tune the HTTP layer.
type Options struct {
	Logger    zerolog.Logger
	Heartbeat time.Duration
}

// NewServer wires routes and returns an http.Handler. It installs the HTML
// fragment renderer on s so every subscriber receives the rendered game.
func NewServer(s *app.Service, opts Options) http.Handler {
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = defaultHeartbeat
	}
	h := &handlers{svc: s, tpl: loadTemplates(), heartbeat: opts.Heartbeat}
	s.SetRenderer(h.tpl.renderGame)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(hlog.NewHandler(opts.Logger))
	r.Use(accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/", h.index)
	r.Post("/play", h.play)
	r.Post("/jump", h.jump)
	r.Post("/sort", h.sort)
	r.Post("/restart", h.restart)
	r.Get("/events", h.events)
	r.Get("/ws", h.ws)
	r.Get("/api/state", h.state)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

var accessLog = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("req_id", middleware.GetReqID(r.Context())).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
})
