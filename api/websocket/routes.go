package websocket

import (
	"github.com/gin-gonic/gin"

	ws "codeberg.org/codeagent/server/internal/websocket"
)

func RegisterRoutes(router *gin.RouterGroup, hub *ws.Hub, cfg UpgraderConfig) {
	router.GET("/ws", WebSocketHandler(hub, cfg))
}
