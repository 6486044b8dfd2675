package health

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"codeberg.org/codeagent/server/internal/version"
)

// Handler godoc
// @Summary Liveness probe
// @Description Returns the plain text OK while the server is up
// @Tags health
// @Produce plain
// @Success 200 {string} string "OK"
// @Router /health [get]
func Handler(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// PingHandler godoc
// @Summary Ping
// @Tags health
// @Produce json
// @Success 200 {object} PingResponse
// @Router /api/v1/ping [get]
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, PingResponse{Message: "pong"})
}

// VersionHandler godoc
// @Summary Server version
// @Tags health
// @Produce json
// @Success 200 {object} VersionResponse
// @Router /api/v1/version [get]
func VersionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, VersionResponse{
		Service: "codeagent",
		Version: version.Version,
	})
}
