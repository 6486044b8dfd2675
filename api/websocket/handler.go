package websocket

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"codeberg.org/codeagent/server/internal/errors"
	"codeberg.org/codeagent/server/internal/logger"
	ws "codeberg.org/codeagent/server/internal/websocket"
)

func newUpgrader(cfg UpgraderConfig) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     ws.CheckOrigin(cfg.AllowedOrigins, cfg.Production),
	}
}

// WebSocketHandler godoc
// @Summary Stream agent actions over a websocket
// @Description Upgrades to a websocket. Clients send {"type":"action","session_id","action_type","parameters","context"} frames and receive chunk frames followed by done or error.
// @Tags websocket
// @Success 101 {string} string "switching protocols"
// @Failure 429 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /api/v1/ws [get]
func WebSocketHandler(hub *ws.Hub, cfg UpgraderConfig) gin.HandlerFunc {
	upgrader := newUpgrader(cfg)

	return func(c *gin.Context) {
		ipAddress := c.ClientIP()

		if err := hub.CanAcceptConnection(ipAddress); err != nil {
			if err == ws.ErrTooManyConnections {
				errors.TooManyRequests(c, err.Error())
				return
			}

			errors.ServiceUnavailable(c, "server is shutting down")
			return
		}

		clientID, err := ws.GenerateClientID()
		if err != nil {
			errors.InternalError(c, "failed to generate client ID", err)
			return
		}

		// upgrade HTTP connection to WebSocket
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.ErrorErr(err, "failed to upgrade connection", "ip", ipAddress)
			return
		}

		client := ws.NewClient(clientID, ipAddress, conn, hub)

		if err := hub.Register(client); err != nil {
			logger.Warn("websocket connection refused", "ip", ipAddress, "error", err)
			conn.Close() //nolint:errcheck,gosec // G104: refused connection
			return
		}

		go client.WritePump()
		go client.ReadPump()

		logger.Info("websocket connection established",
			"client_id", clientID,
			"ip", ipAddress,
		)
	}
}
