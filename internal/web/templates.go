package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/jaminalder/time-travel-tic-tac-toe/internal/app"
	"github.com/jaminalder/time-travel-tic-tac-toe/internal/domain"
)

type templates struct {
	page *template.Template
	game *template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"iter": func(n int) []int {
			a := make([]int, n)
			for i := range a {
				a[i] = i
			}
			return a
		},
		"cellSymbol": func(c domain.Cell) string { return c.String() },
		"add":        func(a, b int) int { return a + b },
		"mul":        func(a, b int) int { return a * b },
		"size":       func() int { return domain.Size },
	}
}

func loadTemplates() *templates {
	page := template.Must(template.New("page").Funcs(funcs()).Parse(pageTemplate))
	template.Must(page.New("game").Parse(gameTemplate))
	game := template.Must(template.New("game_only").Funcs(funcs()).Parse(gameTemplate))
	return &templates{page: page, game: game}
}

func renderTemplate(t *template.Template, data any) []byte {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil
	}
	return buf.Bytes()
}

func (t *templates) renderGame(v app.View) []byte { return renderTemplate(t.game, v) }

func (t *templates) renderPage(v app.View) []byte { return renderTemplate(t.page, v) }

const pageTemplate = `<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Tic Tac Toe</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org@1.9.12/dist/ext/sse.js"></script>
</head><body>
<div id="live" hx-ext="sse" sse-connect="/events" sse-swap="game" hx-swap="innerHTML">{{template "game" .}}</div>
</body></html>`

const gameTemplate = `<div id="game" class="game">
  <div class="game-board">
    <h1>Tic Tac Toe</h1>
    <div class="status">{{.Status}}</div>
    {{range $r := iter size}}
    <div class="board-row">
      {{range $c := iter size}}{{$i := add (mul $r size) $c}}
      <form action="/play" method="post" hx-post="/play" hx-target="#game" hx-swap="outerHTML">
        <input type="hidden" name="i" value="{{$i}}">
        <button type="submit" class="square{{if $.Winning $i}} square-winning{{end}}">{{cellSymbol (index $.Board $i)}}</button>
      </form>
      {{end}}
    </div>
    {{end}}
    {{if .Over}}
    <form action="/restart" method="post" hx-post="/restart" hx-target="#game" hx-swap="outerHTML">
      <button type="submit" class="play-again">Play Again</button>
    </form>
    {{end}}
  </div>
  <div class="game-info">
    <form action="/sort" method="post" hx-post="/sort" hx-target="#game" hx-swap="outerHTML">
      <button type="submit" class="sort-toggle" data-order="{{.Order}}">{{if eq .Order.String "desc"}}Descending{{else}}Ascending{{end}}</button>
    </form>
    <ol>
      {{range .Entries}}
      <li>
        {{if .Current}}<div class="current-move">{{.Label}}</div>
        {{else}}<form action="/jump" method="post" hx-post="/jump" hx-target="#game" hx-swap="outerHTML">
          <input type="hidden" name="move" value="{{.Move}}">
          <button type="submit" class="move-button">{{.Label}}</button>
        </form>{{end}}
      </li>
      {{end}}
    </ol>
  </div>
</div>
`

const sessionCookie = "session_id"

// ensureSessionCookie returns the session ID carried by the request, issuing
// a fresh one when it is missing or malformed.
func ensureSessionCookie(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && app.ValidSessionID(c.Value) {
		return c.Value
	}
	v := app.NewSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    v,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return v
}
