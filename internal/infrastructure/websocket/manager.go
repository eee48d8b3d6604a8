package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"sellnext/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBufferSize = 256
)

// ConversationDirectory answers who takes part in a conversation.
type ConversationDirectory interface {
	Participants(ctx context.Context, conversationID string) ([]string, error)
}

type Limiter interface {
	Allow(subject, action string) (bool, time.Duration)
}

// Client is one socket connection. A user may hold several.
type Client struct {
	ID       string
	UserID   string
	UserName string
	Conn     *websocket.Conn
	Send     chan []byte
	rooms    map[string]struct{}
	closed   bool
}

func NewClient(conn *websocket.Conn, userID, userName string) *Client {
	return &Client{
		ID:       uuid.New().String(),
		UserID:   userID,
		UserName: userName,
		Conn:     conn,
		Send:     make(chan []byte, sendBufferSize),
		rooms:    make(map[string]struct{}),
	}
}

// Manager tracks live connections and their rooms. Membership changes of the
// connection set go through the run loop; rooms are guarded by mutex.
type Manager struct {
	clients    map[*Client]struct{}
	rooms      map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mutex      sync.RWMutex

	directory ConversationDirectory
	limiter   Limiter
	now       func() time.Time
}

func NewManager(directory ConversationDirectory, limiter Limiter) *Manager {
	return &Manager{
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		directory:  directory,
		limiter:    limiter,
		now:        time.Now,
	}
}

func UserRoom(userID string) string {
	return "user_" + userID
}

func ConversationRoom(conversationID string) string {
	return "conversation_" + conversationID
}

// Start runs the manager's loop until ctx is cancelled or Stop is called.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.register:
				m.mutex.Lock()
				m.clients[client] = struct{}{}
				m.joinLocked(client, UserRoom(client.UserID))
				m.mutex.Unlock()
				logger.Debug("WebSocket: client %s registered for user %s", client.ID, client.UserID)

			case client := <-m.unregister:
				m.mutex.Lock()
				m.removeLocked(client)
				m.mutex.Unlock()
				logger.Debug("WebSocket: client %s unregistered", client.ID)

			case <-ctx.Done():
				m.Stop()
				return

			case <-m.done:
				return
			}
		}
	}()
}

// Stop disconnects every client. It is safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		m.mutex.Lock()
		for client := range m.clients {
			m.removeLocked(client)
		}
		m.mutex.Unlock()
		logger.Info("WebSocket: manager stopped")
	})
}

// Register adds a client. It reports false once the manager has stopped.
func (m *Manager) Register(client *Client) bool {
	select {
	case m.register <- client:
		return true
	case <-m.done:
		return false
	}
}

func (m *Manager) Unregister(client *Client) {
	select {
	case m.unregister <- client:
	case <-m.done:
	}
}

// ServeClient registers the connection and runs its pumps. It returns once
// the pumps are started.
func (m *Manager) ServeClient(conn *websocket.Conn, userID, userName string) *Client {
	client := NewClient(conn, userID, userName)
	if !m.Register(client) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return client
	}

	go client.WritePump()
	go client.ReadPump(m)
	return client
}

// removeLocked drops a client from every room and closes its queue. Callers
// hold the write lock.
func (m *Manager) removeLocked(client *Client) {
	if _, ok := m.clients[client]; !ok {
		return
	}
	for room := range client.rooms {
		m.leaveLocked(client, room)
	}
	delete(m.clients, client)
	client.closed = true
	close(client.Send)
}

func (m *Manager) joinLocked(client *Client, room string) {
	members, ok := m.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		m.rooms[room] = members
	}
	members[client] = struct{}{}
	client.rooms[room] = struct{}{}
}

func (m *Manager) leaveLocked(client *Client, room string) {
	if members, ok := m.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(m.rooms, room)
		}
	}
	delete(client.rooms, room)
}

func (m *Manager) Join(client *Client, room string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if client.closed {
		return
	}
	m.joinLocked(client, room)
}

func (m *Manager) Leave(client *Client, room string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.leaveLocked(client, room)
}

func (m *Manager) InRoom(client *Client, room string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, ok := m.rooms[room][client]
	return ok
}

func (m *Manager) RoomSize(room string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms[room])
}

// BroadcastToRoom queues payload for every member of room except the given
// connection. Clients whose queue is full are disconnected.
func (m *Manager) BroadcastToRoom(room string, payload []byte, except *Client) {
	var slow []*Client

	m.mutex.RLock()
	for client := range m.rooms[room] {
		if client == except {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			slow = append(slow, client)
		}
	}
	m.mutex.RUnlock()

	for _, client := range slow {
		logger.Warn("WebSocket: client %s send queue full, disconnecting", client.ID)
		go m.Unregister(client)
	}
}

// SendToClient queues payload for a single connection.
func (m *Manager) SendToClient(client *Client, payload []byte) {
	m.mutex.RLock()
	full := false
	if !client.closed {
		select {
		case client.Send <- payload:
		default:
			full = true
		}
	}
	m.mutex.RUnlock()

	if full {
		logger.Warn("WebSocket: client %s send queue full, disconnecting", client.ID)
		go m.Unregister(client)
	}
}

// ReadPump reads frames until the connection fails, then unregisters.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister(c)
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
				logger.Warn("%s", logger.WithContext(c.UserID, "WebSocket: read error for client %s: %v", c.ID, err))
			}
			return
		}
		m.HandleClientMessage(c, message)
	}
}

// WritePump drains the send queue and keeps the connection alive with pings.
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
				logger.Warn("%s", logger.WithContext(c.UserID, "WebSocket: write error for client %s: %v", c.ID, err))
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
