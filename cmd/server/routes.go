package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swaggo/swag"

	_ "codeberg.org/codeagent/server/docs"

	"codeberg.org/codeagent/server/api/rest/agent"
	"codeberg.org/codeagent/server/api/rest/chat"
	"codeberg.org/codeagent/server/api/rest/health"
	"codeberg.org/codeagent/server/api/websocket"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) error {
	router.Use(CORSMiddleware(server.config.Server.AllowedOrigins))

	rateLimit, err := RateLimitMiddleware(server.config.Server.RateLimit)
	if err != nil {
		return err
	}

	v1 := router.Group("/api/v1")

	health.RegisterRoutes(router, v1)
	router.GET("/swagger/doc.json", SwaggerHandler)

	chat.RegisterRoutes(router.Group("", rateLimit), server.sessions)

	limited := v1.Group("", rateLimit)
	{
		agent.RegisterRoutes(limited, server.sessions)
		websocket.RegisterRoutes(limited, server.hub, websocket.UpgraderConfig{
			AllowedOrigins: server.config.Server.AllowedOrigins,
			Production:     server.config.IsProduction(),
		})
	}

	return nil
}

// serves the registered OpenAPI document
func SwaggerHandler(c *gin.Context) {
	doc, err := swag.ReadDoc()
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to read swagger doc: %v", err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
}
