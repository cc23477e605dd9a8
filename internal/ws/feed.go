package ws

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"tablechat/internal/chat"
	"tablechat/internal/metrics"

	"github.com/rs/zerolog/log"
)

// Feed 将新追加的聊天消息广播给所有订阅的 websocket 客户端。
// 它只是会话之外的观察者，不参与会话的加锁与状态变更。
type Feed struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan frame
	done       chan struct{}
	online     int32
}

func NewFeed() *Feed {
	return &Feed{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan frame, 256),
		done:       make(chan struct{}),
	}
}

// frame 是已编码的事件；seq 为消息序号，非消息事件为 0。
type frame struct {
	seq  int64
	data []byte
}

// Event 是推送给客户端的帧。
type Event struct {
	Type    string        `json:"type"`
	Message *chat.Message `json:"message,omitempty"`
	Members []string      `json:"members,omitempty"`
}

// Publish 非阻塞地投递一条事件；缓冲区已满时丢弃并记录告警。
func (f *Feed) Publish(evt Event) {
	b, err := json.Marshal(evt)
	if err != nil {
		log.Error().Err(err).Str("type", evt.Type).Msg("marshal feed event")
		return
	}
	fr := frame{data: b}
	if evt.Message != nil {
		fr.seq = evt.Message.Seq
	}
	select {
	case f.broadcast <- fr:
	default:
		log.Warn().Str("type", evt.Type).Msg("feed buffer full, event dropped")
	}
}

// Run 处理注册、注销与广播，直到 ctx 结束。
func (f *Feed) Run(ctx context.Context) {
	defer func() {
		for c := range f.clients {
			f.drop(c)
		}
		close(f.done)
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-f.register:
			f.clients[c] = true
			atomic.StoreInt32(&f.online, int32(len(f.clients)))
			metrics.WsConnections.Inc()
		case c := <-f.unregister:
			if _, ok := f.clients[c]; ok {
				f.drop(c)
			}
		case msg := <-f.broadcast:
			for c := range f.clients {
				select {
				case c.send <- msg:
				default:
					f.drop(c)
				}
			}
		}
	}
}

func (f *Feed) drop(c *Client) {
	delete(f.clients, c)
	close(c.send)
	atomic.StoreInt32(&f.online, int32(len(f.clients)))
	metrics.WsConnections.Dec()
}

func (f *Feed) add(c *Client) bool {
	select {
	case f.register <- c:
		return true
	case <-f.done:
		return false
	}
}

func (f *Feed) remove(c *Client) {
	select {
	case f.unregister <- c:
	case <-f.done:
	}
}

// Online 返回当前订阅的客户端数量。
func (f *Feed) Online() int { return int(atomic.LoadInt32(&f.online)) }
