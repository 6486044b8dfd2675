package agent

import (
	"net/http"

	"github.com/gin-gonic/gin"

	agentcore "codeberg.org/codeagent/server/internal/agent"
	"codeberg.org/codeagent/server/internal/errors"
	"codeberg.org/codeagent/server/internal/sessions"
)

// ActionHandler godoc
// @Summary Dispatch an agent action
// @Description Runs the handler registered for the action type against the session's agent. Handler failures are reported in the response body with success=false.
// @Tags agent
// @Accept json
// @Produce json
// @Param request body ActionRequest true "Action request"
// @Success 200 {object} agentcore.Response
// @Failure 400 {object} errors.ErrorResponse
// @Router /api/v1/agent/action [post]
func ActionHandler(manager *sessions.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ActionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		if err := req.Type.Validate(); err != nil {
			errors.BadRequest(c, "invalid action type", err)
			return
		}

		session, err := manager.Get(req.SessionID)
		if err != nil {
			errors.FromError(c, "failed to open session", err)
			return
		}

		if req.Context != nil {
			session.Agent.UpdateContext(*req.Context)
		}

		response := session.Agent.ProcessAction(c.Request.Context(), agentcore.NewAction(req.Type, req.Parameters))

		c.JSON(http.StatusOK, response)
	}
}

// UpdateContextHandler godoc
// @Summary Replace the editing context
// @Tags agent
// @Accept json
// @Param request body ContextRequest true "Editing context"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Router /api/v1/agent/context [put]
func UpdateContextHandler(manager *sessions.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ContextRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		session, err := manager.Get(req.SessionID)
		if err != nil {
			errors.FromError(c, "failed to open session", err)
			return
		}

		session.Agent.UpdateContext(req.Context)

		c.Status(http.StatusNoContent)
	}
}

// ClearContextHandler godoc
// @Summary Clear the editing context
// @Tags agent
// @Param session_id query string false "Session ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/agent/context [delete]
func ClearContextHandler(manager *sessions.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := manager.Lookup(c.Query("session_id"))
		if !ok {
			errors.SessionNotFound(c)
			return
		}

		session.Agent.ClearContext()

		c.Status(http.StatusNoContent)
	}
}

// StatusHandler godoc
// @Summary Agent status
// @Description Reports the session agent's name, capabilities, registered actions and whether its model endpoint answers
// @Tags agent
// @Produce json
// @Param session_id query string false "Session ID"
// @Success 200 {object} StatusResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /api/v1/agent/status [get]
func StatusHandler(manager *sessions.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := manager.Get(c.Query("session_id"))
		if err != nil {
			errors.FromError(c, "failed to open session", err)
			return
		}

		a := session.Agent

		c.JSON(http.StatusOK, StatusResponse{
			SessionID:    session.ID,
			Name:         a.Name(),
			Capabilities: a.Capabilities(),
			Actions:      a.Actions(),
			Connected:    a.TestConnection(c.Request.Context()),
		})
	}
}
