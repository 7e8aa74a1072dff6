// Package server exposes the session engine over a JSON WebSocket gateway.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/iqnite/eggsplode/internal/game"
	"github.com/iqnite/eggsplode/internal/game/rules"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one WebSocket connection. Outbound traffic is funneled through
// the send channel so event pushes and request responses never interleave
// mid-frame.
type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	playerID string

	mu            sync.Mutex
	subscriptions map[string]int // session ID -> event bus handle
}

// Hub tracks connected clients and routes their requests to the session
// manager.
type Hub struct {
	manager    *game.Manager
	log        *zap.Logger
	register   chan *Client
	unregister chan *Client
	clients    map[*Client]bool
	done       chan struct{}
}

// NewHub creates a hub over the given manager.
func NewHub(manager *game.Manager, log *zap.Logger) *Hub {
	return &Hub{
		manager:    manager,
		log:        log,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
	}
}

// Run processes client registration until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				h.dropSubscriptions(client)
				close(client.send)
			}
		case <-h.done:
			for client := range h.clients {
				delete(h.clients, client)
				h.dropSubscriptions(client)
				close(client.send)
			}
			return
		}
	}
}

// Stop disconnects all clients and ends Run.
func (h *Hub) Stop() {
	close(h.done)
}

// drop hands a client back to Run for unregistration. After Stop nobody
// drains the unregister channel, so a late-exiting pump must not block on it.
func (h *Hub) drop(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) dropSubscriptions(c *Client) {
	c.mu.Lock()
	subs := c.subscriptions
	c.subscriptions = nil
	c.mu.Unlock()
	for sessionID, handle := range subs {
		if bus, err := h.manager.Events(sessionID); err == nil {
			bus.Unsubscribe(handle)
		}
	}
}

// dispatch routes one request to the manager and produces the direct reply.
func (h *Hub) dispatch(c *Client, req Request) Response {
	switch req.Type {
	case "create_session":
		id, err := h.manager.CreateSession(req.Players...)
		if err != nil {
			return errResponse("", err)
		}
		return Response{Type: "ok", SessionID: id}

	case "join_session":
		s, err := h.manager.Session(req.SessionID)
		if err != nil {
			return errResponse(req.SessionID, err)
		}
		if err := s.Join(req.PlayerID); err != nil {
			return errResponse(req.SessionID, err)
		}
		return Response{Type: "ok", SessionID: req.SessionID}

	case "start_session":
		s, err := h.manager.Session(req.SessionID)
		if err != nil {
			return errResponse(req.SessionID, err)
		}
		if err := s.Start(); err != nil {
			return errResponse(req.SessionID, err)
		}
		return Response{Type: "ok", SessionID: req.SessionID}

	case "get_state":
		s, err := h.manager.Session(req.SessionID)
		if err != nil {
			return errResponse(req.SessionID, err)
		}
		state := s.PublicState()
		return Response{Type: "state", SessionID: req.SessionID, State: &state}

	case "get_hand":
		s, err := h.manager.Session(req.SessionID)
		if err != nil {
			return errResponse(req.SessionID, err)
		}
		hand, err := s.Hand(req.PlayerID)
		if err != nil {
			return errResponse(req.SessionID, err)
		}
		return Response{Type: "hand", SessionID: req.SessionID, Hand: hand}

	case "submit_action":
		s, err := h.manager.Session(req.SessionID)
		if err != nil {
			return errResponse(req.SessionID, err)
		}
		out, err := s.SubmitAction(req.PlayerID, game.Action{
			Type:       game.ActionType(req.Action),
			Cards:      req.Cards,
			Target:     req.Target,
			DemandKind: req.DemandKind,
			Order:      req.Order,
			Seq:        req.Seq,
		})
		if err != nil {
			return errResponse(req.SessionID, err)
		}
		return okResponse(req.SessionID, out)

	case "submit_counter":
		s, err := h.manager.Session(req.SessionID)
		if err != nil {
			return errResponse(req.SessionID, err)
		}
		out, err := s.SubmitCounter(req.PlayerID)
		if err != nil {
			return errResponse(req.SessionID, err)
		}
		return okResponse(req.SessionID, out)

	case "submit_target":
		s, err := h.manager.Session(req.SessionID)
		if err != nil {
			return errResponse(req.SessionID, err)
		}
		out, err := s.SubmitTarget(req.PlayerID, game.Target{
			Player:   req.Target,
			Kind:     req.DemandKind,
			Position: req.Position,
		})
		if err != nil {
			return errResponse(req.SessionID, err)
		}
		return okResponse(req.SessionID, out)

	case "subscribe":
		if err := h.subscribe(c, req.SessionID); err != nil {
			return errResponse(req.SessionID, err)
		}
		return Response{Type: "ok", SessionID: req.SessionID}

	default:
		return errResponse(req.SessionID, errors.New("unknown request type: "+req.Type))
	}
}

// subscribe attaches the client to a session's event stream. Events are
// serialized on the publisher's goroutine and pushed through the client's
// send channel; a slow client drops events rather than blocking the engine.
func (h *Hub) subscribe(c *Client, sessionID string) error {
	bus, err := h.manager.Events(sessionID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subscriptions == nil {
		c.subscriptions = make(map[string]int)
	}
	if _, ok := c.subscriptions[sessionID]; ok {
		return nil
	}
	handle := bus.Subscribe(func(e rules.Event) {
		payload, err := json.Marshal(Response{
			Type:      "event",
			SessionID: e.SessionID,
			Event: &eventPayload{
				Type:      string(e.Type),
				PlayerID:  e.PlayerID,
				TargetID:  e.TargetID,
				CardKind:  e.CardKind,
				Amount:    e.Amount,
				Winner:    e.Winner,
				Deadline:  e.Deadline,
				Timestamp: e.Timestamp,
			},
		})
		if err != nil {
			return
		}
		select {
		case c.send <- payload:
		default:
		}
	})
	c.subscriptions[sessionID] = handle
	return nil
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.drop(c)
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var req Request
		if err := json.Unmarshal(message, &req); err != nil {
			h.sendTo(c, errResponse("", errors.New("malformed request")))
			continue
		}
		h.sendTo(c, h.dispatch(c, req))
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

func (h *Hub) sendTo(c *Client, resp Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		h.log.Error("marshaling response", zap.Error(err))
		return
	}
	select {
	case c.send <- payload:
	default:
		h.log.Warn("dropping response to slow client", zap.String("player_id", c.playerID))
	}
}

// Server is the HTTP listener hosting the WebSocket endpoint.
type Server struct {
	hub  *Hub
	http *http.Server
	log  *zap.Logger
}

// NewServer builds the gateway on the given address.
func NewServer(addr string, manager *game.Manager, log *zap.Logger) *Server {
	hub := NewHub(manager, log)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWS(hub, log, w, r)
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return &Server{
		hub: hub,
		http: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	go s.hub.Run()
	s.log.Info("websocket gateway listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains the listener and disconnects all clients.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	s.hub.Stop()
	return err
}

func serveWS(hub *Hub, log *zap.Logger, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:     conn,
		send:     make(chan []byte, 256),
		playerID: r.URL.Query().Get("player_id"),
	}
	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(hub)
}
