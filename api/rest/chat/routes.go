package chat

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/codeagent/server/internal/sessions"
)

func RegisterRoutes(router gin.IRoutes, manager *sessions.Manager) {
	router.POST("/chat", Handler(manager))
}
