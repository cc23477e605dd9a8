package server

import (
	"net/http"

	"tablechat/internal/config"
	clog "tablechat/internal/log"
	"tablechat/internal/metrics"
	"tablechat/internal/mw"
	"tablechat/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 统一初始化 Gin 中间件、REST API 以及 WebSocket 端点。
func SetupRouter(cfg config.Config, h *Handler, rl *mw.RL) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(clog.GinMiddleware())
	r.Use(mw.CORS(cfg.Env))
	// 控制单个 IP+路由的速率。
	r.Use(rl.Middleware())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	chat := r.Group("/chat")
	chat.POST("/join", h.Join)
	chat.DELETE("/leave", h.Leave)
	chat.POST("/msg", h.Send)
	chat.GET("/history", h.History)
	chat.GET("/last", h.Last)
	chat.GET("/members", h.Members)
	chat.POST("/roll", h.ChatRoll)
	chat.GET("/ws", ws.Serve(h.feed, h.session))

	d := r.Group("/dice")
	d.GET("", h.DiceMenu)
	d.POST("/faced", h.FacedRoll)
	d.POST("/fate", h.FateRoll)

	ch := r.Group("/character")
	ch.GET("", h.CharacterMenu)
	ch.GET("/skills", h.Skills)
	ch.POST("/save", h.SaveSheet)
	ch.GET("/sheets/:owner", h.GetSheet)
	ch.POST("/export", h.Export)
	ch.POST("/import", h.Import)

	return r
}
