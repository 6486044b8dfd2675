package health

import "github.com/gin-gonic/gin"

// registers /health on the root router and ping/version under v1
func RegisterRoutes(router *gin.Engine, v1 *gin.RouterGroup) {
	router.GET("/health", Handler)

	v1.GET("/ping", PingHandler)
	v1.GET("/version", VersionHandler)
}
