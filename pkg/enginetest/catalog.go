package enginetest

import (
	"fmt"

	"github.com/aretw0/warp/pkg/protocol"
)

// NodeTypes lists the node categories the engine accepts.
var NodeTypes = []string{"trigger", "resource", "action", "generator", "custom"}

// NodeSubtypes lists the subtypes of each node type.
var NodeSubtypes = map[string][]string{
	"trigger":   {"init", "stop", "cyclic", "chat_start", "chat_message_received", "broadcast"},
	"resource":  {"chat_history", "get_tool_schemas"},
	"action":    {"squash_history", "convert_to_openai_history", "register_standard_tool", "send_acl_message"},
	"generator": {"openai_chat_completion_stream"},
	"custom":    {"custom"},
}

// DefaultInterfaces holds the interface every new node of a subtype starts with.
var DefaultInterfaces = map[string]protocol.Schema{
	"cyclic": {
		"interval": {Type: protocol.FieldNumber, Label: "Interval (s)", Default: 60.0, Step: 1.0},
	},
	"squash_history": {
		"separator": {
			Type:        protocol.FieldSelect,
			Label:       "Separator",
			Description: "Separator placed between squashed messages of the same role.",
			Default:     "\\n",
			Options: []protocol.Option{
				{Value: "\\n", Text: "Newline"},
				{Value: "\\n\\n", Text: "Double Newline"},
				{Value: " ", Text: "Space"},
				{Value: "", Text: "None"},
			},
		},
	},
	"get_tool_schemas": {
		"convert_to": {
			Type:    protocol.FieldSelect,
			Label:   "Schema Format",
			Default: "OpenAI",
			Options: []protocol.Option{{Value: "OpenAI", Text: "OpenAI Function Calling"}},
		},
	},
	"register_standard_tool": {
		"tool_name": {Type: protocol.FieldSelect, Label: "Standard Tool Name", OptionsSource: "standard_tool_names"},
	},
	"send_acl_message": {
		"topic": {Type: protocol.FieldText, Label: "Topic", Default: "default"},
	},
	"openai_chat_completion_stream": {
		"api_tag":     {Type: protocol.FieldSelect, Label: "API Tag", OptionsSource: "api_tags"},
		"max_tokens":  {Type: protocol.FieldNumber, Label: "Max Tokens", Default: 1024.0, Step: 1.0},
		"temperature": {Type: protocol.FieldNumber, Label: "Temperature", Default: 1.0, Step: 0.1},
		"stop_sequences": {
			Type:    protocol.FieldTextarea,
			Label:   "Stop Sequences",
			Default: "[]",
			Rows:    3,
		},
		"stream": {Type: protocol.FieldCheckbox, Label: "Stream Response", Default: true},
	},
}

// OptionsProvider computes the options of a dynamic select.
type OptionsProvider func(workflowID, nodeID string) ([]protocol.Option, error)

func staticOptions(opts ...protocol.Option) OptionsProvider {
	return func(string, string) ([]protocol.Option, error) {
		return opts, nil
	}
}

// DefaultProviders are the options sources every engine starts with.
func DefaultProviders() map[string]OptionsProvider {
	return map[string]OptionsProvider{
		"example_source_1": staticOptions(
			protocol.Option{Value: "opt1", Text: "Option 1"},
			protocol.Option{Value: "opt2", Text: "Option 2"},
		),
		"example_source_2": staticOptions(
			protocol.Option{Value: "valA", Text: "Value A"},
			protocol.Option{Value: "valB", Text: "Value B"},
		),
		"standard_tool_names": staticOptions(
			protocol.Option{Value: "get_time", Text: "get_time"},
			protocol.Option{Value: "web_search", Text: "web_search"},
		),
		"api_tags": staticOptions(
			protocol.Option{Value: "default", Text: "default"},
		),
	}
}

func subtypesOf(nodeType string) ([]string, error) {
	subs, ok := NodeSubtypes[nodeType]
	if !ok {
		return nil, fmt.Errorf("unknown node type %q", nodeType)
	}
	return subs, nil
}

// interfaceFor merges a requested interface over the subtype default.
func interfaceFor(subtype string, requested protocol.Schema) protocol.Schema {
	out := protocol.Schema{}
	for k, v := range DefaultInterfaces[subtype] {
		out[k] = v
	}
	for k, v := range requested {
		out[k] = v
	}
	return out
}
