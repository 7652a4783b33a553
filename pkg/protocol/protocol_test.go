package protocol_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/warp/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseFor(t *testing.T) {
	resp, ok := protocol.ResponseFor(protocol.EventNodeContentRequest)
	require.True(t, ok)
	assert.Equal(t, "node", resp)

	_, ok = protocol.ResponseFor(protocol.EventShowToastr)
	assert.False(t, ok)

	for _, req := range protocol.Requests() {
		_, ok := protocol.ResponseFor(req)
		assert.True(t, ok, req)
	}
}

func TestParseResult_Shapes(t *testing.T) {
	cases := []struct {
		name string
		data map[string]any
		ok   bool
	}{
		{"message success", map[string]any{"message": "success", "id": "1"}, true},
		{"message error", map[string]any{"message": "error", "error": "boom"}, false},
		{"message error without detail", map[string]any{"message": "error"}, false},
		{"success true", map[string]any{"success": true}, true},
		{"success false", map[string]any{"success": false}, false},
		{"bare error", map[string]any{"error": "boom"}, false},
		{"plain payload", map[string]any{"name": "wf"}, true},
		{"success true but error", map[string]any{"success": true, "error": "boom"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.ok, protocol.ParseResult(tc.data).OK())
		})
	}
}

func TestCheck_WrapsEngineError(t *testing.T) {
	err := protocol.Check(protocol.EventLinkCreate, map[string]any{"message": "error"})
	require.Error(t, err)
	assert.ErrorIs(t, err, protocol.ErrRejected)
	assert.Equal(t, "link_create: request failed", err.Error())

	assert.NoError(t, protocol.Check(protocol.EventLinkCreate, map[string]any{"message": "success"}))
}

func TestNewEnvelope_SnakeCasePayload(t *testing.T) {
	code := "print(1)"
	env, err := protocol.NewEnvelope(protocol.EventNodeSaveRequest, protocol.NodeSaveRequest{
		WorkflowID:  "wf",
		NodeType:    "custom",
		Code:        &code,
		StaticInput: map[string]any{"a": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "wf", env.Data["workflow_id"])
	assert.Equal(t, "custom", env.Data["node_type"])
	assert.Equal(t, "print(1)", env.Data["code"])
	assert.NotContains(t, env.Data, "id", "sparse patch omits unset fields")
	assert.NotContains(t, env.Data, "handler")
}

func TestOption_BareAndObjectForms(t *testing.T) {
	var opts []protocol.Option
	require.NoError(t, json.Unmarshal([]byte(`["red", {"value": 2, "text": "Two"}]`), &opts))
	require.Len(t, opts, 2)
	assert.Equal(t, "red", opts[0].Key())
	assert.Equal(t, "red", opts[0].Label())
	assert.Equal(t, "2", opts[1].Key())
	assert.Equal(t, "Two", opts[1].Label())
}

func TestDecode_OptionsAndSchema(t *testing.T) {
	data := map[string]any{
		"options_source": "example_source_1",
		"options":        []any{"a", map[string]any{"value": "b", "text": "Bee"}},
	}
	var resp protocol.DynamicOptionsResponse
	require.NoError(t, protocol.Decode(data, &resp))
	assert.Equal(t, "example_source_1", resp.OptionsSource)
	assert.Equal(t, []protocol.Option{{Value: "a", Text: "a"}, {Value: "b", Text: "Bee"}}, resp.Options)

	record := map[string]any{
		"id":        5,
		"node_type": "action",
		"interface": map[string]any{
			"color": map[string]any{"type": "select", "options": []any{"r", "g"}, "default": "r"},
			"rows":  map[string]any{"type": "textarea", "rows": "4"},
		},
		"static_input": map[string]any{"color": "g"},
	}
	var node protocol.NodeRecord
	require.NoError(t, protocol.Decode(record, &node))
	assert.Equal(t, "5", node.ID)
	assert.Equal(t, protocol.FieldSelect, node.Interface["color"].Type)
	assert.Len(t, node.Interface["color"].Options, 2)
	assert.Equal(t, 4, node.Interface["rows"].Rows)
	assert.Equal(t, "g", node.StaticInput["color"])
}
