package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiufpe/hub-api/internal/models"
	"github.com/hiufpe/hub-api/internal/tools"
)

type stubCatalog struct {
	actors []*models.JWTClaims
	args   []string
}

func (s *stubCatalog) Specs() []tools.Spec {
	return []tools.Spec{{
		Name:        tools.QueryAverage,
		Description: "average of a subject",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"subject": map[string]any{"type": "string"}},
			"required":   []string{"subject"},
		},
	}}
}

func (s *stubCatalog) Invoke(ctx context.Context, actor *models.JWTClaims, name string, raw json.RawMessage) tools.Result {
	s.actors = append(s.actors, actor)
	s.args = append(s.args, string(raw))
	var args struct {
		Subject string `json:"subject"`
	}
	_ = json.Unmarshal(raw, &args)
	if args.Subject == "" {
		return tools.Result{Tool: name, Error: "subject is required"}
	}
	return tools.Result{Tool: name, Output: map[string]any{"subject": args.Subject, "average": 7.5}}
}

func call(t *testing.T, catalog *stubCatalog, payload string) map[string]any {
	t.Helper()
	s, err := New(catalog, "student-1", "test", nil)
	require.NoError(t, err)
	resp := s.HandleMessage(context.Background(), json.RawMessage(payload))
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	return decoded
}

func TestListsCatalogTools(t *testing.T) {
	resp := call(t, &stubCatalog{}, `{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)

	result := resp["result"].(map[string]any)
	listed := result["tools"].([]any)
	require.Len(t, listed, 1)
	tool := listed[0].(map[string]any)
	assert.Equal(t, tools.QueryAverage, tool["name"])
	schema := tool["inputSchema"].(map[string]any)
	assert.Equal(t, []any{"subject"}, schema["required"])
}

func TestCallInvokesAsConfiguredStudent(t *testing.T) {
	catalog := &stubCatalog{}
	resp := call(t, catalog, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"query_average","arguments":{"subject":"calculo"}}}`)

	require.Len(t, catalog.actors, 1)
	assert.Equal(t, "student-1", catalog.actors[0].UserID)
	assert.Equal(t, models.RoleStudent, catalog.actors[0].Role)
	assert.JSONEq(t, `{"subject":"calculo"}`, catalog.args[0])

	result := resp["result"].(map[string]any)
	assert.NotEqual(t, true, result["isError"])
	content := result["content"].([]any)[0].(map[string]any)
	assert.JSONEq(t, `{"subject":"calculo","average":7.5}`, content["text"].(string))
}

func TestCallReportsToolFailure(t *testing.T) {
	resp := call(t, &stubCatalog{}, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"query_average","arguments":{}}}`)

	result := resp["result"].(map[string]any)
	assert.Equal(t, true, result["isError"])
	content := result["content"].([]any)[0].(map[string]any)
	assert.JSONEq(t, `{"error":"subject is required"}`, content["text"].(string))
}
