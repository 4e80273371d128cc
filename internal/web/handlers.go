package web

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/jaminalder/time-travel-tic-tac-toe/internal/app"
	"github.com/jaminalder/time-travel-tic-tac-toe/internal/domain"
)

var errBadInput = errors.New("bad input")

type handlers struct {
	svc       *app.Service
	tpl       *templates
	heartbeat time.Duration
}

// session returns the caller's session, starting one if needed.
func (h *handlers) session(w http.ResponseWriter, r *http.Request) (string, app.View, error) {
	id := ensureSessionCookie(w, r)
	v, err := h.svc.Open(r.Context(), id)
	return id, v, err
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	_, v, err := h.session(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.tpl.renderPage(v))
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(id string) (app.View, error) {
		i, err := formInt(r, "i")
		if err != nil {
			return app.View{}, err
		}
		return h.svc.Play(r.Context(), id, i)
	})
}

func (h *handlers) jump(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(id string) (app.View, error) {
		m, err := formInt(r, "move")
		if err != nil {
			return app.View{}, err
		}
		return h.svc.JumpTo(r.Context(), id, m)
	})
}

func (h *handlers) sort(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(id string) (app.View, error) {
		return h.svc.ToggleSortOrder(r.Context(), id)
	})
}

func (h *handlers) restart(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(id string) (app.View, error) {
		return h.svc.Restart(r.Context(), id)
	})
}

// action runs one user action and answers with the game fragment, or with a
// redirect to the page for plain form posts.
func (h *handlers) action(w http.ResponseWriter, r *http.Request, do func(id string) (app.View, error)) {
	id, _, err := h.session(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := do(id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if r.Header.Get("HX-Request") == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.tpl.renderGame(v))
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
	_, v, err := h.session(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id, _, err := h.session(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// In tests or non-EventSource requests, just acknowledge headers and return
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, unsub := h.svc.Subscribe(ctx, id)
	defer unsub()
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	// A (re)connecting view starts from the current game; every
	// notification re-reads it so the last event shown is never stale.
	push := func() bool {
		v, err := h.svc.Get(ctx, id)
		if err != nil {
			hlog.FromRequest(r).Debug().Err(err).Str("session", id).Msg("event stream ended")
			return false
		}
		writeEvent(w, "game", h.tpl.renderGame(v))
		flusher.Flush()
		return true
	}
	if !push() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case _, ok := <-ch:
			if !ok || !push() {
				return
			}
		}
	}
}

// writeEvent frames payload as one SSE event; every payload line gets its
// own data field.
func writeEvent(w io.Writer, event string, payload []byte) {
	_, _ = fmt.Fprintf(w, "event: %s\n", event)
	sc := bufio.NewScanner(bytes.NewReader(payload))
	sc.Buffer(make([]byte, 0, 64*1024), len(payload)+1)
	for sc.Scan() {
		_, _ = fmt.Fprintf(w, "data: %s\n", sc.Bytes())
	}
	_, _ = io.WriteString(w, "\n")
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBadInput), errors.Is(err, domain.ErrMoveOutOfRange), errors.Is(err, app.ErrBadID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, app.ErrNotFound):
		http.NotFound(w, r)
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func formInt(r *http.Request, name string) (int, error) {
	if err := r.ParseForm(); err != nil {
		return 0, fmt.Errorf("%w: %v", errBadInput, err)
	}
	n, err := strconv.Atoi(r.Form.Get(name))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadInput, name)
	}
	return n, nil
}
