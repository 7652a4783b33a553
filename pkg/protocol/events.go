package protocol

// Request events sent by the client.
const (
	EventWorkflowListRequest   = "workflow_list_request"
	EventWorkflowRequest       = "workflow_request"
	EventWorkflowSaveRequest   = "workflow_save_request"
	EventWorkflowDeleteRequest = "workflow_delete_request"

	EventNodeSaveRequest           = "node_save_request"
	EventNodeDeleteRequest         = "node_delete_request"
	EventNodeContentRequest        = "node_request"
	EventNodeDynamicOptionsRequest = "node_get_dynamic_options_request"
	EventNodeTypesRequest          = "node_get_types_request"
	EventNodeSubtypesRequest       = "node_get_subtypes_request"

	EventLinkCreateRequest = "link_create_request"
	EventLinkDeleteRequest = "link_delete_request"

	EventAgentListRequest       = "agent_list_request"
	EventAgentRequest           = "agent_request"
	EventAgentSaveRequest       = "agent_save_request"
	EventAgentDeleteRequest     = "agent_delete_request"
	EventAgentStartRequest      = "agent_start_request"
	EventAgentStopRequest       = "agent_stop_request"
	EventAgentNewVarRequest     = "agent_new_var_request"
	EventAgentImportVarsRequest = "agent_import_vars_request"
	EventAgentDeleteVarRequest  = "agent_delete_var_request"
)

// Response events emitted by the engine.
const (
	EventWorkflowList   = "workflow_list"
	EventWorkflow       = "workflow"
	EventWorkflowSave   = "workflow_save"
	EventWorkflowDelete = "workflow_delete"

	EventNodeSave           = "node_save"
	EventNodeDelete         = "node_delete"
	EventNodeContent        = "node"
	EventNodeDynamicOptions = "node_get_dynamic_options"
	EventNodeTypes          = "node_get_types"
	EventNodeSubtypes       = "node_get_subtypes"

	EventLinkCreate = "link_create"
	EventLinkDelete = "link_delete"

	EventAgentList       = "agent_list"
	EventAgent           = "agent"
	EventAgentSave       = "agent_save"
	EventAgentDelete     = "agent_delete"
	EventAgentStart      = "agent_start"
	EventAgentStop       = "agent_stop"
	EventAgentNewVar     = "agent_new_var"
	EventAgentImportVars = "agent_import_vars"
	EventAgentDeleteVar  = "agent_delete_var"
)

// Events pushed by the engine without a matching request.
const (
	EventShowToastr = "show_toastr"
	EventShowModal  = "show_modal"
)

var responses = map[string]string{
	EventWorkflowListRequest:   EventWorkflowList,
	EventWorkflowRequest:       EventWorkflow,
	EventWorkflowSaveRequest:   EventWorkflowSave,
	EventWorkflowDeleteRequest: EventWorkflowDelete,

	EventNodeSaveRequest:           EventNodeSave,
	EventNodeDeleteRequest:         EventNodeDelete,
	EventNodeContentRequest:        EventNodeContent,
	EventNodeDynamicOptionsRequest: EventNodeDynamicOptions,
	EventNodeTypesRequest:          EventNodeTypes,
	EventNodeSubtypesRequest:       EventNodeSubtypes,

	EventLinkCreateRequest: EventLinkCreate,
	EventLinkDeleteRequest: EventLinkDelete,

	EventAgentListRequest:       EventAgentList,
	EventAgentRequest:           EventAgent,
	EventAgentSaveRequest:       EventAgentSave,
	EventAgentDeleteRequest:     EventAgentDelete,
	EventAgentStartRequest:      EventAgentStart,
	EventAgentStopRequest:       EventAgentStop,
	EventAgentNewVarRequest:     EventAgentNewVar,
	EventAgentImportVarsRequest: EventAgentImportVars,
	EventAgentDeleteVarRequest:  EventAgentDeleteVar,
}

// ResponseFor returns the response event paired with a request event.
// The second value is false for events that have no known pairing.
func ResponseFor(request string) (string, bool) {
	resp, ok := responses[request]
	return resp, ok
}

// Requests returns every known request event name.
func Requests() []string {
	out := make([]string, 0, len(responses))
	for req := range responses {
		out = append(out, req)
	}
	return out
}
