package mw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// 掷骰接口通过 range/times 头传参，导出接口通过 user 头指定角色卡所有者。
const allowedHeaders = "Content-Type, X-Request-ID, range, times, user"

// CORS 返回跨域中间件：dev 环境允许所有来源，其余环境只允许同源。
func CORS(env string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		if env == "dev" {
			c.Header("Access-Control-Allow-Origin", origin)
		} else if strings.Contains(origin, c.Request.Host) {
			c.Header("Access-Control-Allow-Origin", origin)
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", allowedHeaders)
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
