// Package chat 维护共享聊天会话：在线用户集合与只追加的消息历史。
package chat

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// User 仅由去除首尾空白后的用户名标识，大小写敏感。
type User struct {
	Name string `json:"name"`
}

// Message 创建后不可变。作者离开会话后消息仍保留在历史中。
type Message struct {
	ID     uuid.UUID `json:"id"`
	Seq    int64     `json:"seq"`
	Author User      `json:"author"`
	SentAt time.Time `json:"sent_at"`
	Text   string    `json:"text"`
}

// Option 配置 Session。
type Option func(*Session)

// WithClock 替换消息时间戳所用的时钟，测试中用来得到确定的顺序。
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// Session 是单进程内的聊天会话。所有操作在整个执行期间持有同一把互斥锁，
// 锁内不做任何 I/O，也不回调其他加锁操作。
type Session struct {
	mu       sync.Mutex
	now      func() time.Time
	users    map[string]User
	messages []Message
}

func NewSession(opts ...Option) *Session {
	s := &Session{
		now:   time.Now,
		users: make(map[string]User),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalize(username string) (string, error) {
	name := strings.TrimSpace(username)
	if name == "" {
		return "", ErrInvalidUsername
	}
	return name, nil
}

// Join 将用户加入会话；同名用户已存在时返回 ErrAlreadyJoined 且不修改状态。
func (s *Session) Join(username string) error {
	name, err := normalize(username)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[name]; ok {
		return ErrAlreadyJoined
	}
	s.users[name] = User{Name: name}
	return nil
}

// Leave 将用户移出会话，不影响历史消息。
func (s *Session) Leave(username string) error {
	name, err := normalize(username)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[name]; !ok {
		return ErrNotFound
	}
	delete(s.users, name)
	return nil
}

// Send 追加一条消息并返回它。
//
// 未加入会话的用户发送消息时会被隐式加入（fallback join），而不是报错。
// 文本会去除首尾空白，空文本同样被接受。
func (s *Session) Send(username, text string) (Message, error) {
	name, err := normalize(username)
	if err != nil {
		return Message{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	author, ok := s.users[name]
	if !ok {
		author = User{Name: name}
		s.users[name] = author
	}
	msg := Message{
		ID:     uuid.New(),
		Seq:    int64(len(s.messages)) + 1,
		Author: author,
		SentAt: s.now(),
		Text:   strings.TrimSpace(text),
	}
	s.messages = append(s.messages, msg)
	return msg, nil
}

// History 按追加顺序返回完整历史的副本，空历史返回空切片而非错误。
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// LastMessage 返回最近一条消息，历史为空时 ok 为 false。
func (s *Session) LastMessage() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// Members 返回按字典序排序的在线用户名。
func (s *Session) Members() []string {
	s.mu.Lock()
	names := lo.Keys(s.users)
	s.mu.Unlock()
	slices.Sort(names)
	return names
}

func (s *Session) IsMember(username string) bool {
	name := strings.TrimSpace(username)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[name]
	return ok
}
