// Package search runs debounced live search sessions over websockets. Every
// inbound text frame is the current contents of the search box; every state
// change of the session is pushed back as JSON.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"cinefetch/internal/query"
	"cinefetch/pkg/models"
)

const writeWait = 5 * time.Second

var timeNow = time.Now

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Searcher runs one page of a title search; *fetch.Service implements it.
type Searcher interface {
	Search(ctx context.Context, q string, page int) (*models.MoviePage, error)
}

// Message is the outbound frame.
type Message struct {
	Type    string `json:"type"`
	Session string `json:"session,omitempty"`
	query.SearchSnapshot
}

type inbound struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func WSHandler(hub *Hub, svc Searcher, opts query.SearchOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[search] upgrade failed: %v", err)
			return
		}

		id := uuid.NewString()
		hub.Add(id, ws)
		log.Printf("[search] session %s connected", id)

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		sess := query.NewSearchSession(ctx, func(ctx context.Context, q string) (*models.MoviePage, error) {
			return svc.Search(ctx, q, 1)
		}, opts)

		_ = ws.SetWriteDeadline(timeNow().Add(writeWait))
		_ = ws.WriteJSON(Message{Type: "welcome", Session: id, SearchSnapshot: sess.Snapshot()})

		out := newOutbox()
		sess.OnChange(out.put)
		done := make(chan struct{})
		go writeLoop(ws, id, out, done)

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				break
			}
			if text, ok := parseInbound(data); ok {
				sess.SetQuery(text)
			}
		}

		sess.Close()
		out.close()
		<-done
		hub.Remove(id)
		log.Printf("[search] session %s disconnected", id)
	}
}

// parseInbound accepts either raw text or {"type":"query","text":"..."}.
func parseInbound(data []byte) (string, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return string(data), true
	}
	var in inbound
	if err := json.Unmarshal(trimmed, &in); err != nil {
		return string(data), true
	}
	if in.Type != "" && in.Type != "query" {
		return "", false
	}
	return in.Text, true
}

func writeLoop(ws *websocket.Conn, id string, out *outbox, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-out.signal:
			snap, ok := out.take()
			if !ok {
				continue
			}
			_ = ws.SetWriteDeadline(timeNow().Add(writeWait))
			if err := ws.WriteJSON(Message{Type: "search", SearchSnapshot: snap}); err != nil {
				log.Printf("[search] session %s write failed: %v", id, err)
				return
			}
		case <-out.quit:
			return
		}
	}
}

// outbox keeps only the newest snapshot so a slow client never blocks the
// session; intermediate transitions may be coalesced.
type outbox struct {
	mu     sync.Mutex
	latest *query.SearchSnapshot
	signal chan struct{}
	quit   chan struct{}
	once   sync.Once
}

func newOutbox() *outbox {
	return &outbox{signal: make(chan struct{}, 1), quit: make(chan struct{})}
}

func (o *outbox) put(s query.SearchSnapshot) {
	o.mu.Lock()
	o.latest = &s
	o.mu.Unlock()
	select {
	case o.signal <- struct{}{}:
	default:
	}
}

func (o *outbox) take() (query.SearchSnapshot, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.latest == nil {
		return query.SearchSnapshot{}, false
	}
	s := *o.latest
	o.latest = nil
	return s, true
}

func (o *outbox) close() {
	o.once.Do(func() { close(o.quit) })
}
