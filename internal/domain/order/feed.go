package order

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/bhojan/bhojan-api/internal/middleware"
)

const (
	feedChannel    = "orders:status"
	sendBufferSize = 16
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 50 * time.Second
)

// feedConnection is one websocket subscriber
type feedConnection struct {
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
}

// Feed broadcasts order status events to connected clients. Events are routed
// through Redis Pub/Sub so every API instance sees every status change; without
// Redis the feed degrades to local-only delivery.
type Feed struct {
	connections map[uuid.UUID]map[*feedConnection]bool

	redis  *redis.Client
	pubsub *redis.PubSub

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

// NewFeed creates the order status feed
func NewFeed(redisClient *redis.Client) *Feed {
	ctx, cancel := context.WithCancel(context.Background())

	f := &Feed{
		connections: make(map[uuid.UUID]map[*feedConnection]bool),
		redis:       redisClient,
		ctx:         ctx,
		cancel:      cancel,
	}

	if redisClient != nil {
		f.pubsub = redisClient.Subscribe(ctx, feedChannel)
	}

	return f
}

// Run consumes the Redis subscription (call in goroutine)
func (f *Feed) Run() {
	if f.pubsub == nil {
		return
	}

	ch := f.pubsub.Channel()
	for {
		select {
		case <-f.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event StatusEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			f.deliverLocal(&event)
		}
	}
}

// PublishStatus broadcasts a status change. Never blocks the caller.
func (f *Feed) PublishStatus(event StatusEvent) {
	data, err := json.Marshal(&event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal order status event")
		return
	}

	if f.redis != nil {
		if err := f.redis.Publish(f.ctx, feedChannel, data).Err(); err != nil {
			log.Warn().Err(err).Msg("redis publish failed, delivering locally")
			f.deliverLocal(&event)
		}
		return
	}

	f.deliverLocal(&event)
}

// deliverLocal pushes the event to the order's customer connections on this instance
func (f *Feed) deliverLocal(event *StatusEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	for conn := range f.connections[event.UserID] {
		select {
		case conn.send <- data:
		default:
			log.Warn().Str("user_id", event.UserID.String()).Msg("order feed send buffer full")
		}
	}
}

func (f *Feed) register(conn *feedConnection) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.connections[conn.userID] == nil {
		f.connections[conn.userID] = make(map[*feedConnection]bool)
	}
	f.connections[conn.userID][conn] = true
}

func (f *Feed) unregister(conn *feedConnection) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if conns, ok := f.connections[conn.userID]; ok {
		if _, exists := conns[conn]; exists {
			delete(conns, conn)
			close(conn.send)
		}
		if len(conns) == 0 {
			delete(f.connections, conn.userID)
		}
	}
}

// Shutdown stops the feed
func (f *Feed) Shutdown() {
	f.cancel()
	if f.pubsub != nil {
		f.pubsub.Close()
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS handles GET /orders/feed, upgrading to a websocket that streams the
// authenticated user's order status events.
func (f *Feed) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := &feedConnection{
		userID: userID,
		conn:   ws,
		send:   make(chan []byte, sendBufferSize),
	}
	f.register(conn)

	go conn.writePump()
	conn.readPump(f)
}

func (c *feedConnection) readPump(f *Feed) {
	defer func() {
		f.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Clients only listen; discard anything they send.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *feedConnection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
