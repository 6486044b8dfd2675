package agent

import (
	agentcore "codeberg.org/codeagent/server/internal/agent"
)

// request payload for dispatching one action
type ActionRequest struct {
	SessionID  string                    `json:"session_id"`
	Type       agentcore.ActionType      `json:"type" binding:"required"`
	Parameters agentcore.Params          `json:"parameters"`
	Context    *agentcore.EditingContext `json:"context,omitempty"`
}

// request payload for replacing the editing context
type ContextRequest struct {
	SessionID string                   `json:"session_id"`
	Context   agentcore.EditingContext `json:"context"`
}

// agent identity and reachability of its model endpoint
type StatusResponse struct {
	SessionID    string                 `json:"session_id"`
	Name         string                 `json:"name"`
	Capabilities []agentcore.Capability `json:"capabilities"`
	Actions      []agentcore.ActionType `json:"actions"`
	Connected    bool                   `json:"connected"`
}
