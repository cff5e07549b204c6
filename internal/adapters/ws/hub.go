package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rfialho/paddle/internal/domain/auction"
)

// Config holds configuration for WebSocket connections
type Config struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConfig returns default WebSocket configuration
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

type hubMsg interface{ isHubMsg() }

// register adds a client together with the join snapshot it must receive
// first
type register struct {
	client   *Client
	snapshot []byte
}

type unregister struct{ client *Client }

type broadcast struct{ payload []byte }

// direct delivers a frame to a single client, e.g. a close failure notice
type direct struct {
	client  *Client
	payload []byte
}

// countClients is a query used by tests and the health endpoint
type countClients struct{ reply chan int }

func (register) isHubMsg()     {}
func (unregister) isHubMsg()   {}
func (broadcast) isHubMsg()    {}
func (direct) isHubMsg()       {}
func (countClients) isHubMsg() {}

// Hub is the broadcast channel between the auction coordinator and all
// connected clients. A single goroutine owns the client registry, so
// registration, removal and fan-out never race, and the inbox's FIFO order
// preserves the coordinator's linearized broadcast order for every client.
type Hub struct {
	coordinator *auction.Coordinator
	upgrader    websocket.Upgrader
	config      Config
	logger      *slog.Logger

	inbox   chan hubMsg
	clients map[*Client]bool
}

// NewHub creates a new WebSocket hub. Run must be called before clients
// connect.
func NewHub(config Config, logger *slog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:  config,
		logger:  logger,
		inbox:   make(chan hubMsg, 64),
		clients: make(map[*Client]bool),
	}
}

// SetCoordinator wires the coordinator after construction. The hub is the
// coordinator's broadcaster and the coordinator is the hub's command target,
// so one side has to be attached late.
func (h *Hub) SetCoordinator(c *auction.Coordinator) {
	h.coordinator = c
}

// Run processes hub messages until the context is cancelled
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return nil

		case m := <-h.inbox:
			switch msg := m.(type) {
			case register:
				h.clients[msg.client] = true
				msg.client.send <- msg.snapshot

			case unregister:
				h.remove(msg.client)

			case broadcast:
				for client := range h.clients {
					select {
					case client.send <- msg.payload:
					default:
						// Client is slow or dead - drop it. It can
						// re-join to resync.
						h.logger.Warn("client send buffer full, closing connection",
							slog.String("client_id", client.id),
						)
						h.remove(client)
						client.conn.Close()
					}
				}

			case direct:
				if h.clients[msg.client] {
					select {
					case msg.client.send <- msg.payload:
					default:
					}
				}

			case countClients:
				msg.reply <- len(h.clients)
			}
		}
	}
}

// ServeWS upgrades an HTTP connection and joins it to the auction. The new
// subscriber is enqueued together with the current snapshot inside the
// coordinator's critical section: broadcasts that linearized before the join
// are already folded into the snapshot, and every later one reaches the
// client through the inbox, in order.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade WebSocket connection", "error", err)
		return
	}

	client := &Client{
		id:   uuid.New().String(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.coordinator.Join(func(snap auction.Snapshot) {
		h.inbox <- register{client: client, snapshot: encodeBidUpdated(snap)}
	})

	go client.writePump()
	go client.readPump()

	h.logger.Info("client connected",
		slog.String("client_id", client.id),
		slog.String("remote_addr", r.RemoteAddr),
	)
}

// BidUpdated broadcasts the snapshot to all connected clients
func (h *Hub) BidUpdated(snap auction.Snapshot) {
	h.inbox <- broadcast{payload: encodeBidUpdated(snap)}
}

// PlayerSold broadcasts a successful close-out to all connected clients
func (h *Hub) PlayerSold(playerID uuid.UUID, team string, price int64) {
	h.inbox <- broadcast{payload: encodePlayerSold(playerID, team, price)}
}

// ClientCount reports the number of connected clients
func (h *Hub) ClientCount() int {
	reply := make(chan int, 1)
	h.inbox <- countClients{reply: reply}
	return <-reply
}

func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *Hub) shutdown() {
	for client := range h.clients {
		close(client.send)
		client.conn.Close()
		delete(h.clients, client)
	}
}
