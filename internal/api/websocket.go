package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/davidduclam/movietracker/internal/jobs"
)

// ──────────────────── WebSocket Hub ────────────────────

type WSHub struct {
	mu      sync.RWMutex
	clients map[*WSClient]bool

	// last catalog:warmed payload per "mediaType:list", replayed on connect
	warmed   map[string]json.RawMessage
	warmedMu sync.RWMutex

	log zerolog.Logger
}

type WSClient struct {
	conn *websocket.Conn
	send chan []byte
}

type WSMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

func NewWSHub(log zerolog.Logger) *WSHub {
	return &WSHub{
		clients: make(map[*WSClient]bool),
		warmed:  make(map[string]json.RawMessage),
		log:     log,
	}
}

// Broadcast sends an event to every connected client. Clients whose buffer
// is full miss the message.
func (h *WSHub) Broadcast(event string, data interface{}) {
	msg, err := json.Marshal(WSMessage{Event: event, Data: data})
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("marshal websocket event")
		return
	}

	if event == jobs.EventCatalogWarmed {
		h.trackWarm(data, msg)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
		}
	}
}

func (h *WSHub) trackWarm(data interface{}, raw []byte) {
	res, ok := data.(jobs.WarmResult)
	if !ok {
		return
	}
	h.warmedMu.Lock()
	defer h.warmedMu.Unlock()
	h.warmed[string(res.MediaType)+":"+res.List] = json.RawMessage(raw)
}

func (h *WSHub) replayWarm(client *WSClient) {
	h.warmedMu.RLock()
	defer h.warmedMu.RUnlock()
	for _, msg := range h.warmed {
		select {
		case client.send <- msg:
		default:
		}
	}
}

func (h *WSHub) addClient(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *WSHub) removeClient(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ──────────────────── WebSocket Handler ────────────────────

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(s.corsOrigins),
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket accept")
		return
	}

	client := &WSClient{conn: conn, send: make(chan []byte, 64)}
	s.wsHub.addClient(client)
	s.wsHub.replayWarm(client)
	s.log.Debug().Int("clients", s.wsHub.ClientCount()).Msg("websocket client connected")

	ctx := r.Context()

	go func() {
		defer conn.Close(websocket.StatusNormalClosure, "")
		for msg := range client.send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	// Inbound messages are ignored; reading keeps control frames flowing.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	s.wsHub.removeClient(client)
	s.log.Debug().Int("clients", s.wsHub.ClientCount()).Msg("websocket client disconnected")
}

// originPatterns turns configured CORS origins into the host patterns the
// websocket library matches against. Same-host requests are always allowed.
func originPatterns(origins []string) []string {
	var out []string
	for _, o := range origins {
		if o == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
		}
	}
	return out
}
