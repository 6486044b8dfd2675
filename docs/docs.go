// Package docs holds the OpenAPI description of the codeagent server.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string"}}
                }
            }
        },
        "/chat": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["text/event-stream"],
                "tags": ["chat"],
                "summary": "Chat with the coding agent",
                "parameters": [
                    {"description": "Chat message", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/chat.Request"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/chat.Event"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/api/v1/ping": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Ping",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/health.PingResponse"}}
                }
            }
        },
        "/api/v1/version": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Server version",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/health.VersionResponse"}}
                }
            }
        },
        "/api/v1/agent/action": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["agent"],
                "summary": "Dispatch an agent action",
                "parameters": [
                    {"description": "Action request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/agent.ActionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/agentcore.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/api/v1/agent/context": {
            "put": {
                "consumes": ["application/json"],
                "tags": ["agent"],
                "summary": "Replace the editing context",
                "parameters": [
                    {"description": "Editing context", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/agent.ContextRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["agent"],
                "summary": "Clear the editing context",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "session_id", "in": "query"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/api/v1/agent/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["agent"],
                "summary": "Agent status",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "session_id", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/agent.StatusResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/api/v1/ws": {
            "get": {
                "tags": ["websocket"],
                "summary": "Stream agent actions over a websocket",
                "responses": {
                    "101": {"description": "switching protocols", "schema": {"type": "string"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "string"}
            }
        },
        "health.PingResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "health.VersionResponse": {
            "type": "object",
            "properties": {"service": {"type": "string"}, "version": {"type": "string"}}
        },
        "chat.Request": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "isSystemMessage": {"type": "boolean"},
                "session_id": {"type": "string"},
                "context": {"$ref": "#/definitions/chat.FileContext"}
            }
        },
        "chat.FileContext": {
            "type": "object",
            "properties": {
                "fileName": {"type": "string"},
                "content": {"type": "string"},
                "language": {"type": "string"},
                "cursorPosition": {"type": "array", "items": {"type": "integer"}},
                "selectedText": {"type": "string"}
            }
        },
        "chat.Event": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "done": {"type": "boolean"},
                "startNewMessage": {"type": "boolean"},
                "type": {"type": "string"},
                "content": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "agentcore.EditingContext": {
            "type": "object",
            "properties": {
                "file_path": {"type": "string"},
                "content": {"type": "string"},
                "language": {"type": "string"},
                "cursor_position": {"type": "array", "items": {"type": "integer"}},
                "selected_text": {"type": "string"}
            }
        },
        "agentcore.Edit": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "position": {"description": "[row, col], a character offset or null"},
                "content": {"type": "string"}
            }
        },
        "agentcore.Response": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "changes": {"type": "array", "items": {"$ref": "#/definitions/agentcore.Edit"}},
                "suggestions": {"type": "array", "items": {"type": "string"}}
            }
        },
        "agent.ActionRequest": {
            "type": "object",
            "required": ["type"],
            "properties": {
                "session_id": {"type": "string"},
                "type": {"type": "string"},
                "parameters": {"type": "object", "additionalProperties": true},
                "context": {"$ref": "#/definitions/agentcore.EditingContext"}
            }
        },
        "agent.ContextRequest": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"},
                "context": {"$ref": "#/definitions/agentcore.EditingContext"}
            }
        },
        "agent.StatusResponse": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"},
                "name": {"type": "string"},
                "capabilities": {"type": "array", "items": {"type": "string"}},
                "actions": {"type": "array", "items": {"type": "string"}},
                "connected": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Code Agent API",
	Description:      "Editor-facing coding assistant: SSE chat, agent actions and websocket streaming.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
