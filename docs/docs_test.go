package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestDocIsRegistered(t *testing.T) {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var openapi struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &openapi))

	assert.Equal(t, "Code Agent API", openapi.Info.Title)

	routed := []string{
		"/health",
		"/chat",
		"/api/v1/ping",
		"/api/v1/version",
		"/api/v1/agent/action",
		"/api/v1/agent/context",
		"/api/v1/agent/status",
		"/api/v1/ws",
	}

	assert.Len(t, openapi.Paths, len(routed))

	for _, path := range routed {
		assert.Contains(t, openapi.Paths, path)
	}
}
