package agent

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/codeagent/server/internal/sessions"
)

func RegisterRoutes(router *gin.RouterGroup, manager *sessions.Manager) {
	agentGroup := router.Group("/agent")
	{
		agentGroup.POST("/action", ActionHandler(manager))
		agentGroup.PUT("/context", UpdateContextHandler(manager))
		agentGroup.DELETE("/context", ClearContextHandler(manager))
		agentGroup.GET("/status", StatusHandler(manager))
	}
}
