package websocket

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"marketsync/internal/domain/repository"
	"marketsync/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Client is one websocket connection. A user may hold several.
type Client struct {
	ID     string
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	log    *slog.Logger
	mu     sync.Mutex
	closed bool
	subs   map[string]repository.Subscription
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	id := uuid.New().String()
	return &Client{
		ID:     id,
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
		log:    logger.With("client", id, "user", userID),
		subs:   make(map[string]repository.Subscription),
	}
}

// enqueue never blocks: store listeners call it and must not stall on a slow
// socket. Frames for a full buffer are dropped; the next snapshot supersedes them.
func (c *Client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.Send <- frame:
		return true
	default:
		c.log.Warn("websocket send buffer full, dropping frame")
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Manager tracks connected clients and owns the store subscriptions opened on
// their behalf.
type Manager struct {
	clients    map[string]map[*Client]struct{}
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex

	sources    Sources
	ctx        context.Context
	done       chan struct{}
	activeSubs atomic.Int64
}

func NewManager(sources Sources) *Manager {
	return &Manager{
		clients:    make(map[string]map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		sources:    sources,
		ctx:        context.Background(),
		done:       make(chan struct{}),
	}
}

// Start runs the register loop until ctx is cancelled. Subscriptions opened
// afterwards live at most as long as ctx.
func (m *Manager) Start(ctx context.Context) {
	m.ctx = ctx
	go func() {
		defer close(m.done)
		for {
			select {
			case client := <-m.Register:
				m.addClient(client)

			case client := <-m.Unregister:
				m.removeClient(client)

			case <-ctx.Done():
				m.mutex.RLock()
				var all []*Client
				for _, set := range m.clients {
					for c := range set {
						all = append(all, c)
					}
				}
				m.mutex.RUnlock()
				for _, c := range all {
					m.removeClient(c)
				}
				return
			}
		}
	}()
}

func (m *Manager) addClient(client *Client) {
	m.mutex.Lock()
	set, ok := m.clients[client.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		m.clients[client.UserID] = set
	}
	set[client] = struct{}{}
	m.mutex.Unlock()
	client.log.Debug("websocket client registered")
}

func (m *Manager) removeClient(client *Client) {
	m.mutex.Lock()
	set, ok := m.clients[client.UserID]
	if ok {
		delete(set, client)
		if len(set) == 0 {
			delete(m.clients, client.UserID)
		}
	}
	m.mutex.Unlock()

	m.stopAll(client)
	client.close()
	client.log.Debug("websocket client unregistered")
}

// Add registers a client with the loop. It reports false once the manager
// has shut down; the caller then owns the connection.
func (m *Manager) Add(client *Client) bool {
	select {
	case m.Register <- client:
		return true
	case <-m.done:
		return false
	}
}

// unregister hands the client to the loop, or cleans up directly once the
// loop has exited.
func (m *Manager) unregister(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
		m.removeClient(client)
	}
}

func (m *Manager) ConnectedClients() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	n := 0
	for _, set := range m.clients {
		n += len(set)
	}
	return n
}

// ActiveSubscriptions counts store listeners held for clients. It returns to
// zero once every client has unsubscribed or disconnected.
func (m *Manager) ActiveSubscriptions() int {
	return int(m.activeSubs.Load())
}

func (m *Manager) addSub(client *Client, id string, sub repository.Subscription) {
	client.mu.Lock()
	if client.closed {
		client.mu.Unlock()
		sub.Stop()
		return
	}
	client.subs[id] = sub
	client.mu.Unlock()
	m.activeSubs.Add(1)
}

// removeSub stops one subscription. Stop runs outside the client lock since
// the listener may be blocked in enqueue.
func (m *Manager) removeSub(client *Client, id string) bool {
	client.mu.Lock()
	sub, ok := client.subs[id]
	delete(client.subs, id)
	client.mu.Unlock()

	if !ok {
		return false
	}
	sub.Stop()
	m.activeSubs.Add(-1)
	return true
}

func (m *Manager) stopAll(client *Client) {
	client.mu.Lock()
	subs := client.subs
	client.subs = make(map[string]repository.Subscription)
	client.mu.Unlock()

	for _, sub := range subs {
		sub.Stop()
		m.activeSubs.Add(-1)
	}
}

// ReadPump reads frames until the connection fails, then unregisters.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read failed", "error", err)
			}
			return
		}
		m.HandleClientMessage(c, message)
	}
}

// WritePump drains Send to the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.Warn("websocket write failed", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
