package service

import (
	"context"
	"fmt"
	"strings"

	"tablechat/internal/chat"
	"tablechat/internal/dice"
)

const (
	defaultRollTitle = "Roll"
	defaultRoller    = "Anonymous"
)

// RollRequest 是聊天内掷骰请求。Dice 为文本提示，无法识别时按 Fate 处理。
type RollRequest struct {
	Dice        string `json:"dice"`
	Range       *int   `json:"range"`
	Times       *int   `json:"times"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Username    string `json:"username"`
}

// RollOutcome 包含掷骰结果以及写入历史的那条消息。
type RollOutcome struct {
	Result  dice.Result  `json:"result"`
	Message chat.Message `json:"message"`
}

// RollService 组合聊天会话与骰子引擎，代表用户掷骰并把结果写入聊天记录。
type RollService struct {
	session *chat.Session
	engine  *dice.Engine
	limits  dice.Limits
}

func NewRollService(session *chat.Session, engine *dice.Engine, limits dice.Limits) *RollService {
	return &RollService{session: session, engine: engine, limits: limits}
}

// Resolve 先在锁外掷骰，再通过一次 Send 追加摘要消息，会话锁只获取一次。
// ctx 已取消时不会追加任何消息。
func (s *RollService) Resolve(ctx context.Context, req RollRequest) (*RollOutcome, error) {
	kind := dice.ParseKind(req.Dice)

	var rng, times *int
	if kind == dice.KindFaced {
		rng, times = req.Range, req.Times
		if err := s.limits.Check(rng, times); err != nil {
			return nil, err
		}
	}
	result, err := s.engine.Roll(kind, rng, times)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	user := strings.TrimSpace(req.Username)
	if user == "" {
		user = defaultRoller
	}
	msg, err := s.session.Send(user, Summary(req.Title, user, req.Description, result))
	if err != nil {
		return nil, fmt.Errorf("append roll message: %w", err)
	}
	return &RollOutcome{Result: result, Message: msg}, nil
}

// Summary 渲染掷骰摘要，例如 "Attack: Ana rolled 2d6 [3, 5] (total 8)"。
func Summary(title, user, description string, result dice.Result) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultRollTitle
	}
	out := fmt.Sprintf("%s: %s rolled %s", title, user, result)
	if d := strings.TrimSpace(description); d != "" {
		out += " - " + d
	}
	return out
}
