package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/timclh/Chess-v1-sub000/engine"
)

const wsIdlePingInterval = 30 * time.Second

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type AnalysisClient struct {
	hub  *AnalysisHub
	conn *websocket.Conn
	send chan []byte
}

// AnalysisHub fans completed analyses out to connected websocket observers.
type AnalysisHub struct {
	mu        sync.Mutex
	clients   map[*AnalysisClient]struct{}
	broadcast chan AnalysisResponse
}

func NewAnalysisHub() *AnalysisHub {
	return &AnalysisHub{
		clients:   make(map[*AnalysisClient]struct{}),
		broadcast: make(chan AnalysisResponse, 64),
	}
}

func (h *AnalysisHub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case payload := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				client.sendJSON(wsMessage{Type: "analysis", Payload: mustMarshal(payload)})
			}
			h.mu.Unlock()
		}
	}
}

func (h *AnalysisHub) Publish(payload AnalysisResponse) {
	select {
	case h.broadcast <- payload:
	default:
	}
}

func (h *AnalysisHub) Register(c *AnalysisClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *AnalysisHub) Unregister(c *AnalysisClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *AnalysisHub) HasClients() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) > 0
}

func (c *AnalysisClient) sendJSON(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// serveAnalysisWS upgrades the connection and serves analysis requests over
// it. Each request streams a progress message per completed deepening
// iteration, then the final result. Completed analyses from other clients
// arrive as broadcast messages.
func serveAnalysisWS(s *Server, w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &AnalysisClient{hub: s.hub, conn: conn, send: make(chan []byte, 16)}
	s.hub.Register(client)

	go func() {
		defer conn.Close()
		client.writeLoop(wsIdlePingInterval)
	}()

	for {
		var req AnalyzeRequest
		if err := conn.ReadJSON(&req); err != nil {
			s.hub.Unregister(client)
			return
		}
		if errs := validate.Struct(&req); errs != nil {
			client.sendJSON(wsMessage{Type: "error", Payload: mustMarshal(map[string]string{
				"error":   "validation failed",
				"details": validationDetails(errs),
			})})
			continue
		}
		resp, err := s.Analyze(req, func(update engine.ProgressUpdate) {
			client.sendJSON(wsMessage{Type: "progress", Payload: mustMarshal(update)})
		})
		if err != nil {
			client.sendJSON(wsMessage{Type: "error", Payload: mustMarshal(map[string]string{"error": err.Error()})})
			continue
		}
		client.sendJSON(wsMessage{Type: "result", Payload: mustMarshal(resp)})
	}
}

// writeLoop drains the send queue onto the socket, emitting a ping frame
// whenever nothing has gone out for a full interval. Returns when the queue
// closes or a write fails.
func (c *AnalysisClient) writeLoop(pingEvery time.Duration) {
	ping := mustMarshal(wsMessage{Type: "ping"})
	idle := time.NewTimer(pingEvery)
	defer idle.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(pingEvery)
		case <-idle.C:
			if err := c.conn.WriteMessage(websocket.TextMessage, ping); err != nil {
				return
			}
			idle.Reset(pingEvery)
		}
	}
}
