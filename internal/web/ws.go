package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/hlog"

	"github.com/jaminalder/time-travel-tic-tac-toe/internal/app"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// wsRequest is an action sent by a websocket client.
type wsRequest struct {
	Action string `json:"action"`
	Cell   int    `json:"cell"`
	Move   int    `json:"move"`
}

// wsMessage is pushed to websocket clients.
type wsMessage struct {
	Type  string    `json:"type"`
	State *app.View `json:"state,omitempty"`
	Error string    `json:"error,omitempty"`
}

var (
	errUnknownAction = errors.New("unknown action")
	errBadRequest    = errors.New("malformed request")
)

// ws streams the session as JSON views. Clients may also send actions; the
// resulting change reaches every view of the session, this one included.
func (h *handlers) ws(w http.ResponseWriter, r *http.Request) {
	id, v, err := h.session(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	logger := hlog.FromRequest(r).With().Str("session", id).Logger()

	var hdr http.Header
	if c := w.Header().Values("Set-Cookie"); len(c) > 0 {
		hdr = http.Header{"Set-Cookie": c}
	}
	conn, err := upgrader.Upgrade(w, r, hdr)
	if err != nil {
		logger.Error().Err(err).Msg("websocket upgrade error")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	ch, unsub := h.svc.Subscribe(ctx, id)
	defer unsub()

	replies := make(chan wsMessage, 1)
	go func() {
		defer cancel()
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Debug().Err(err).Msg("websocket closed")
				}
				return
			}
			var req wsRequest
			if jsonErr := json.Unmarshal(raw, &req); jsonErr != nil {
				err = fmt.Errorf("%w: %v", errBadRequest, jsonErr)
			} else {
				err = h.wsApply(ctx, id, req)
			}
			if err != nil {
				select {
				case replies <- wsMessage{Type: "error", Error: err.Error()}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	send := func(m wsMessage) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(m); err != nil {
			logger.Debug().Err(err).Msg("websocket write failed")
			return false
		}
		return true
	}

	if !send(wsMessage{Type: "state", State: &v}) {
		return
	}
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case m := <-replies:
			if !send(m) {
				return
			}
		case _, ok := <-ch:
			if !ok {
				return
			}
			cur, err := h.svc.Get(ctx, id)
			if err != nil {
				send(wsMessage{Type: "error", Error: err.Error()})
				return
			}
			if !send(wsMessage{Type: "state", State: &cur}) {
				return
			}
		}
	}
}

func (h *handlers) wsApply(ctx context.Context, id string, req wsRequest) error {
	var err error
	switch req.Action {
	case "play":
		_, err = h.svc.Play(ctx, id, req.Cell)
	case "jump":
		_, err = h.svc.JumpTo(ctx, id, req.Move)
	case "sort":
		_, err = h.svc.ToggleSortOrder(ctx, id)
	case "restart":
		_, err = h.svc.Restart(ctx, id)
	default:
		err = fmt.Errorf("%w: %q", errUnknownAction, req.Action)
	}
	return err
}
