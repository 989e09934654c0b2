package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second

	clientBuffer    = 64
	broadcastBuffer = 256
)

// hub 是实时预测推送中心：每条新预测广播给全部订阅者。
// 订阅者消费过慢时丢弃其连接，广播队列满时丢弃消息，
// 两种背压都不会传导到预测路径。
type hub struct {
	clients    map[*liveClient]bool
	broadcasts chan []byte
	register   chan *liveClient
	unregister chan *liveClient
	upgrader   websocket.Upgrader
	logger     zerolog.Logger
	ctx        context.Context
	cancel     context.CancelFunc
}

type liveClient struct {
	conn *websocket.Conn
	send chan []byte
}

func newHub(logger zerolog.Logger) *hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &hub{
		clients:    make(map[*liveClient]bool),
		broadcasts: make(chan []byte, broadcastBuffer),
		register:   make(chan *liveClient),
		unregister: make(chan *liveClient),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// run 是中心事件循环，clients 只在此协程内读写。
func (h *hub) run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug().Int("clients", len(h.clients)).Msg("server: live client connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.logger.Debug().Int("clients", len(h.clients)).Msg("server: live client disconnected")

		case message := <-h.broadcasts:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					delete(h.clients, client)
					close(client.send)
				}
			}

		case <-h.ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return
		}
	}
}

func (h *hub) stop() { h.cancel() }

// broadcast 非阻塞入队，队列满时丢弃本条消息。
func (h *hub) broadcast(message []byte) {
	select {
	case h.broadcasts <- message:
	default:
		h.logger.Debug().Msg("server: live broadcast queue full, message dropped")
	}
}

func (h *hub) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("server: websocket upgrade failed")
		return
	}

	client := &liveClient{
		conn: conn,
		send: make(chan []byte, clientBuffer),
	}

	select {
	case h.register <- client:
	case <-h.ctx.Done():
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

func (c *liveClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// readPump 只负责消费控制帧与探测断连，推送是单向的。
func (c *liveClient) readPump(h *hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.ctx.Done():
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
