package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"tablechat/internal/character"
	"tablechat/internal/chat"
	"tablechat/internal/dice"
	"tablechat/internal/metrics"
	"tablechat/internal/service"
	"tablechat/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// maxFateRepetitions 是 /dice/fate 单次请求允许的最大重复次数。
const maxFateRepetitions = 4

// Handler 聚合所有 HTTP handler，依赖注入会话与 service 层。
type Handler struct {
	session *chat.Session
	rolls   *service.RollService
	engine  *dice.Engine
	limits  dice.Limits
	sheets  *service.SheetService
	feed    *ws.Feed
}

func NewHandler(session *chat.Session, rolls *service.RollService, engine *dice.Engine, limits dice.Limits, sheets *service.SheetService, feed *ws.Feed) *Handler {
	return &Handler{session: session, rolls: rolls, engine: engine, limits: limits, sheets: sheets, feed: feed}
}

type action struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type userRequest struct {
	Username string `json:"username"`
}

// aborted 在请求已被取消时返回 true，此时不再调用任何会修改会话的操作。
func aborted(c *gin.Context) bool {
	if err := c.Request.Context().Err(); err != nil {
		zerolog.Ctx(c.Request.Context()).Debug().Err(err).Str("path", c.FullPath()).Msg("request cancelled")
		c.AbortWithStatus(499)
		return true
	}
	return false
}

func (h *Handler) chatError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, chat.ErrAlreadyJoined):
		c.JSON(http.StatusConflict, gin.H{"error": "User already joined"})
	case errors.Is(err, chat.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, chat.ErrInvalidUsername):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid username"})
	case errors.Is(err, dice.ErrInvalidRange),
		errors.Is(err, dice.ErrRangeTooLarge),
		errors.Is(err, dice.ErrTooManyRolls):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg(op)
		c.JSON(http.StatusInternalServerError, gin.H{"error": op + " failed"})
	}
}

// afterMembership 在成员变化后刷新指标并推送成员列表。
func (h *Handler) afterMembership() {
	members := h.session.Members()
	metrics.ChatMembers.Set(float64(len(members)))
	h.feed.Publish(ws.Event{Type: "members", Members: members})
}

// afterAppend 在追加消息后刷新指标、推送消息并记录最近一条消息。
func (h *Handler) afterAppend(c *gin.Context, msg chat.Message) {
	metrics.ChatMessagesTotal.Inc()
	metrics.ChatMembers.Set(float64(len(h.session.Members())))
	h.feed.Publish(ws.Event{Type: "message", Message: &msg})
	if last, ok := h.session.LastMessage(); ok {
		zerolog.Ctx(c.Request.Context()).Debug().
			Int64("seq", last.Seq).
			Str("author", last.Author.Name).
			Msg("last message")
	}
}

// Join 处理加入聊天请求。
func (h *Handler) Join(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if aborted(c) {
		return
	}
	if err := h.session.Join(req.Username); err != nil {
		h.chatError(c, err, "join")
		return
	}
	h.afterMembership()
	c.JSON(http.StatusOK, gin.H{"message": "You have joined"})
}

// Leave 处理离开聊天请求。
func (h *Handler) Leave(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if aborted(c) {
		return
	}
	if err := h.session.Leave(req.Username); err != nil {
		h.chatError(c, err, "leave")
		return
	}
	h.afterMembership()
	c.JSON(http.StatusOK, gin.H{"message": "You have left"})
}

// Send 处理发送消息请求，未加入的用户会被隐式加入。
func (h *Handler) Send(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Message  string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if aborted(c) {
		return
	}
	msg, err := h.session.Send(req.Username, req.Message)
	if err != nil {
		h.chatError(c, err, "send")
		return
	}
	h.afterAppend(c, msg)
	c.JSON(http.StatusOK, msg)
}

// History 返回完整聊天记录；历史为空时返回 404。
func (h *Handler) History(c *gin.Context) {
	msgs := h.session.History()
	if len(msgs) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *Handler) Last(c *gin.Context) {
	msg, ok := h.session.LastMessage()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No messages"})
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (h *Handler) Members(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"members": h.session.Members()})
}

// ChatRoll 掷骰并把结果作为一条消息写入聊天记录。
func (h *Handler) ChatRoll(c *gin.Context) {
	var req service.RollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if aborted(c) {
		return
	}
	out, err := h.rolls.Resolve(c.Request.Context(), req)
	if err != nil {
		h.chatError(c, err, "roll")
		return
	}
	metrics.DiceRollsTotal.WithLabelValues(out.Result.Kind.String()).Inc()
	h.afterAppend(c, out.Message)
	c.JSON(http.StatusOK, out)
}

// DiceMenu 列出可用的掷骰接口。
func (h *Handler) DiceMenu(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"actions": []action{
		{Name: "Roll faced dice (headers: range, times)", Path: "/dice/faced"},
		{Name: "Roll fate dice (header: times)", Path: "/dice/fate"},
	}})
}

// headerInt 读取整数请求头；缺失或无法解析时视为未提供。
func headerInt(c *gin.Context, name string) *int {
	raw := strings.TrimSpace(c.GetHeader(name))
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}

// FacedRoll 按 range/times 请求头掷多面骰。
func (h *Handler) FacedRoll(c *gin.Context) {
	rng, times := headerInt(c, "range"), headerInt(c, "times")
	if err := h.limits.Check(rng, times); err != nil {
		h.chatError(c, err, "faced roll")
		return
	}
	result, err := h.engine.Roll(dice.KindFaced, rng, times)
	if err != nil {
		h.chatError(c, err, "faced roll")
		return
	}
	metrics.DiceRollsTotal.WithLabelValues(dice.KindFaced.String()).Inc()
	c.JSON(http.StatusOK, result)
}

// FateRoll 按 times 请求头重复掷 Fate 骰，返回每次的结果。
// 缺省时掷一次；非正数返回空列表。
func (h *Handler) FateRoll(c *gin.Context) {
	reps := 1
	if times := headerInt(c, "times"); times != nil {
		reps = max(*times, 0)
	}
	if reps > maxFateRepetitions {
		c.JSON(http.StatusBadRequest, gin.H{"error": dice.ErrTooManyRolls.Error()})
		return
	}
	results := lo.Times(reps, func(int) dice.Result {
		return h.engine.Fate()
	})
	metrics.DiceRollsTotal.WithLabelValues(dice.KindFate.String()).Add(float64(reps))
	c.JSON(http.StatusOK, results)
}

// CharacterMenu 列出可用的角色卡接口。
func (h *Handler) CharacterMenu(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"actions": []action{
		{Name: "Default skill table", Path: "/character/skills"},
		{Name: "Save a character sheet", Path: "/character/save"},
		{Name: "Latest sheet of an owner", Path: "/character/sheets/:owner"},
		{Name: "Export a sheet (header: user)", Path: "/character/export"},
		{Name: "Import an exported sheet", Path: "/character/import"},
	}})
}

func (h *Handler) Skills(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"skills": character.DefaultSkills()})
}

func (h *Handler) sheetError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, service.ErrSheetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "sheet not found"})
	case errors.Is(err, service.ErrInvalidSheet), errors.Is(err, service.ErrInvalidExportToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg(op)
		c.JSON(http.StatusInternalServerError, gin.H{"error": op + " failed"})
	}
}

// SaveSheet 保存角色卡，Skills 缺省时使用默认技能表。
func (h *Handler) SaveSheet(c *gin.Context) {
	var sheet character.Sheet
	if err := c.ShouldBindJSON(&sheet); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if sheet.Skills == nil {
		sheet.Skills = character.DefaultSkills()
	}
	id, err := h.sheets.Save(c.Request.Context(), sheet)
	if err != nil {
		h.sheetError(c, err, "save sheet")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (h *Handler) GetSheet(c *gin.Context) {
	sheet, err := h.sheets.Lookup(c.Request.Context(), c.Param("owner"))
	if err != nil {
		h.sheetError(c, err, "lookup sheet")
		return
	}
	c.JSON(http.StatusOK, sheet)
}

// Export 将 user 请求头指定的所有者的最新角色卡导出为签名令牌。
func (h *Handler) Export(c *gin.Context) {
	owner := strings.TrimSpace(c.GetHeader("user"))
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user header"})
		return
	}
	token, err := h.sheets.Export(c.Request.Context(), owner)
	if err != nil {
		h.sheetError(c, err, "export sheet")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) Import(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	sheet, err := h.sheets.Import(strings.TrimSpace(req.Token))
	if err != nil {
		h.sheetError(c, err, "import sheet")
		return
	}
	c.JSON(http.StatusOK, sheet)
}
