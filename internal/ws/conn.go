package ws

import (
	"net/http"
	"time"

	"tablechat/internal/chat"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// Client 是一个只读订阅者，客户端发来的数据帧会被忽略。
type Client struct {
	feed *Feed
	conn *websocket.Conn
	send chan frame
	// snapshotSeq 是已随历史快照发出的最后一条消息序号，之后的实时消息才会转发。
	snapshotSeq int64
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Serve 升级连接，先注册订阅再推送历史快照，随后持续推送新事件。
// 快照之前已在队列中的消息按序号去重，因此每条消息恰好送达一次。
func Serve(f *Feed, session *chat.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Msg("ws upgrade")
			return
		}
		client := &Client{feed: f, conn: conn, send: make(chan frame, 256)}
		if !f.add(client) {
			_ = conn.Close()
			return
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		for _, msg := range session.History() {
			m := msg
			if err := conn.WriteJSON(Event{Type: "message", Message: &m}); err != nil {
				f.remove(client)
				_ = conn.Close()
				return
			}
			client.snapshotSeq = m.Seq
		}

		go client.writePump()
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.feed.remove(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(4 << 10)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case fr, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if fr.seq != 0 && fr.seq <= c.snapshotSeq {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, fr.data); err != nil {
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
