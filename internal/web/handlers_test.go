package web

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaminalder/time-travel-tic-tac-toe/internal/app"
	"github.com/jaminalder/time-travel-tic-tac-toe/internal/domain"
	"github.com/jaminalder/time-travel-tic-tac-toe/internal/store"
)

func newTestServer(t *testing.T) (*app.Service, http.Handler) {
	t.Helper()
	s := app.NewService(store.NewMemory(time.Minute), zerolog.Nop())
	h := NewServer(s, Options{Logger: zerolog.Nop(), Heartbeat: time.Second})
	return s, h
}

func sessionCookieOf(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatalf("expected %s cookie to be set", sessionCookie)
	return nil
}

// post sends an htmx form post for the given session.
func post(t *testing.T, h http.Handler, id, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: id})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func playCells(t *testing.T, h http.Handler, id string, cells ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rr *httptest.ResponseRecorder
	for _, c := range cells {
		rr = post(t, h, id, "/play", url.Values{"i": {c}})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}
	return rr
}

func TestIndexSetsCookieAndRendersGame(t *testing.T) {
	svc, h := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	c := sessionCookieOf(t, rr)
	assert.True(t, app.ValidSessionID(c.Value))
	_, err := svc.Get(context.Background(), c.Value)
	require.NoError(t, err)

	body := rr.Body.String()
	assert.Contains(t, body, `id="game"`)
	assert.Contains(t, body, "Next player: X")
	assert.Contains(t, body, "You are at move #0")
	assert.Contains(t, body, `sse-connect="/events"`)
	assert.Equal(t, 9, strings.Count(body, `class="square"`))
}

func TestIndexReusesSession(t *testing.T) {
	svc, h := newTestServer(t)
	id := app.NewSessionID()
	_, err := svc.Open(context.Background(), id)
	require.NoError(t, err)
	_, err = svc.Play(context.Background(), id, 4)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: id})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Empty(t, rr.Result().Cookies())
	assert.Contains(t, rr.Body.String(), "Next player: O")
}

func TestPlayReturnsFragment(t *testing.T) {
	svc, h := newTestServer(t)
	id := app.NewSessionID()

	rr := playCells(t, h, id, "4")
	body := rr.Body.String()
	assert.Contains(t, body, `id="game"`)
	assert.NotContains(t, body, "<html")
	assert.Contains(t, body, "Next player: O")
	assert.Contains(t, body, "Go to game start")
	assert.Contains(t, body, "You are at move #1 — X (2,2)")

	v, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.X, v.Board[4])
}

func TestPlayWithoutHtmxRedirects(t *testing.T) {
	_, h := newTestServer(t)
	form := url.Values{"i": {"0"}}
	req := httptest.NewRequest(http.MethodPost, "/play", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Result().Header.Get("Location"))
}

func TestPlayBadInput(t *testing.T) {
	_, h := newTestServer(t)
	rr := post(t, h, app.NewSessionID(), "/play", url.Values{"i": {"abc"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPlayOccupiedIsIgnored(t *testing.T) {
	svc, h := newTestServer(t)
	id := app.NewSessionID()
	playCells(t, h, id, "4", "4")

	v, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Moves)
}

func TestJumpAndBranch(t *testing.T) {
	svc, h := newTestServer(t)
	id := app.NewSessionID()
	playCells(t, h, id, "4", "0")

	rr := post(t, h, id, "/jump", url.Values{"move": {"0"}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "You are at move #0")
	assert.Contains(t, rr.Body.String(), "Go to move #2 — O (1,1)")

	playCells(t, h, id, "1")
	v, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Moves)
	assert.Equal(t, domain.X, v.Board[1])
}

func TestJumpOutOfRange(t *testing.T) {
	_, h := newTestServer(t)
	rr := post(t, h, app.NewSessionID(), "/jump", url.Values{"move": {"5"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSortToggle(t *testing.T) {
	_, h := newTestServer(t)
	id := app.NewSessionID()
	playCells(t, h, id, "4", "0")

	rr := post(t, h, id, "/sort", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `data-order="desc"`)
	assert.Less(t, strings.Index(body, "You are at move #2"), strings.Index(body, "Go to game start"))
}

func TestWinShowsRestart(t *testing.T) {
	_, h := newTestServer(t)
	id := app.NewSessionID()
	rr := playCells(t, h, id, "0", "1", "4", "2", "8")

	body := rr.Body.String()
	assert.Contains(t, body, "Winner: X")
	assert.Equal(t, 3, strings.Count(body, "square-winning"))
	assert.Contains(t, body, "Play Again")

	rr = post(t, h, id, "/restart", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Next player: X")
	assert.NotContains(t, rr.Body.String(), "Play Again")
}

func TestDrawStatus(t *testing.T) {
	_, h := newTestServer(t)
	rr := playCells(t, h, app.NewSessionID(), "0", "1", "2", "4", "3", "5", "7", "6", "8")
	assert.Contains(t, rr.Body.String(), "Draw!")
}

func TestStateJSON(t *testing.T) {
	_, h := newTestServer(t)
	id := app.NewSessionID()
	playCells(t, h, id, "4")

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: id})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var v app.View
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	assert.Equal(t, id, v.SessionID)
	assert.Equal(t, "Next player: O", v.Status)
	assert.Equal(t, domain.X, v.Board[4])
	require.Len(t, v.Entries, 2)
	assert.Equal(t, "X (2,2)", v.Entries[1].Annotation)
}

func TestHealthz(t *testing.T) {
	_, h := newTestServer(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestEventsEndpointSSEHeaders(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Result().Header.Get("Content-Type"), "text/event-stream"))
}

// openEvents connects to the SSE stream of session id. Headers arrive
// after the subscription exists.
func openEvents(t *testing.T, ctx context.Context, srv *httptest.Server, id string) *bufio.Scanner {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/event-stream")
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: id})
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return bufio.NewScanner(resp.Body)
}

// nextEvent reads one event, skipping heartbeats, and returns its name and data.
func nextEvent(t *testing.T, sc *bufio.Scanner) (string, string) {
	t.Helper()
	var event string
	var data []string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		case line == "" && event != "":
			return event, strings.Join(data, "\n")
		}
	}
	t.Fatalf("event stream ended: %v", sc.Err())
	return "", ""
}

func TestEventsStreamGameFragments(t *testing.T) {
	svc, h := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()
	id := app.NewSessionID()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sc := openEvents(t, ctx, srv, id)

	event, data := nextEvent(t, sc)
	assert.Equal(t, "game", event)
	assert.Contains(t, data, "You are at move #0")

	_, err := svc.Play(ctx, id, 4)
	require.NoError(t, err)

	event, data = nextEvent(t, sc)
	assert.Equal(t, "game", event)
	assert.Contains(t, data, "You are at move #1 — X (2,2)")
}

func TestEventsReconnectStartsFromCurrentGame(t *testing.T) {
	svc, h := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()
	id := app.NewSessionID()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := svc.Open(ctx, id)
	require.NoError(t, err)

	// moves made while the view was disconnected
	for _, i := range []int{4, 0} {
		_, err = svc.Play(ctx, id, i)
		require.NoError(t, err)
	}

	_, data := nextEvent(t, openEvents(t, ctx, srv, id))
	assert.Contains(t, data, "You are at move #2 — O (1,1)")
	assert.Contains(t, data, "Next player: X")
}

func TestEventsCoalescedUpdatesEndOnLatest(t *testing.T) {
	svc, h := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()
	id := app.NewSessionID()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sc := openEvents(t, ctx, srv, id)
	nextEvent(t, sc)

	for _, i := range []int{4, 0, 8} {
		_, err := svc.Play(ctx, id, i)
		require.NoError(t, err)
	}

	// whatever got coalesced, the stream settles on the final game
	for {
		_, data := nextEvent(t, sc)
		if strings.Contains(data, "You are at move #3") {
			break
		}
	}
}

func TestWriteEventFramesEveryLine(t *testing.T) {
	var buf bytes.Buffer
	writeEvent(&buf, "game", []byte("<div>\n  x\n</div>"))
	assert.Equal(t, "event: game\ndata: <div>\ndata:   x\ndata: </div>\n\n", buf.String())
}
