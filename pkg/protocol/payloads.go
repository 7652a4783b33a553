package protocol

// WorkflowSummary is one entry of the workflow list.
type WorkflowSummary struct {
	ID   string `json:"id" mapstructure:"id"`
	Name string `json:"name" mapstructure:"name"`
}

// WorkflowListResponse is the payload of EventWorkflowList.
type WorkflowListResponse struct {
	Workflows []WorkflowSummary `mapstructure:"workflows"`
}

// IDRequest is the payload of every request keyed by a single id.
type IDRequest struct {
	ID string `json:"id" mapstructure:"id"`
}

// LinkRef is an undirected edge between two persisted node ids.
type LinkRef struct {
	Source string `json:"source" mapstructure:"source"`
	Target string `json:"target" mapstructure:"target"`
}

// WorkflowDetail is the payload of EventWorkflow.
// Graph holds the opaque layout snapshot.
type WorkflowDetail struct {
	ID    string                `mapstructure:"id"`
	Name  string                `mapstructure:"name"`
	Graph map[string]any        `mapstructure:"graph"`
	Links []LinkRef             `mapstructure:"links"`
	Nodes map[string]NodeRecord `mapstructure:"nodes"`
}

// WorkflowSaveRequest creates a workflow (no ID) or updates one.
type WorkflowSaveRequest struct {
	ID    string         `json:"id,omitempty" mapstructure:"id"`
	Name  string         `json:"name,omitempty" mapstructure:"name"`
	Graph map[string]any `json:"graph,omitempty" mapstructure:"graph"`
}

// SaveResponse is the payload of every *_save event.
type SaveResponse struct {
	ID string `mapstructure:"id"`
}

// NodeSaveRequest is a sparse patch: only set fields are sent.
// An empty ID creates the node.
type NodeSaveRequest struct {
	WorkflowID  string         `json:"workflow_id" mapstructure:"workflow_id"`
	ID          string         `json:"id,omitempty" mapstructure:"id"`
	Name        string         `json:"name,omitempty" mapstructure:"name"`
	Interface   Schema         `json:"interface,omitempty" mapstructure:"interface"`
	NodeType    string         `json:"node_type,omitempty" mapstructure:"node_type"`
	NodeSubtype string         `json:"node_subtype,omitempty" mapstructure:"node_subtype"`
	Handler     *string        `json:"handler,omitempty" mapstructure:"handler"`
	Code        *string        `json:"code,omitempty" mapstructure:"code"`
	StaticInput map[string]any `json:"static_input,omitempty" mapstructure:"static_input"`
}

// NodeRequest addresses one node of a workflow.
type NodeRequest struct {
	WorkflowID string `json:"workflow_id" mapstructure:"workflow_id"`
	ID         string `json:"id" mapstructure:"id"`
}

// NodeRecord is the full per-node record returned by EventNodeContent.
type NodeRecord struct {
	ID          string         `json:"id" mapstructure:"id"`
	Name        string         `json:"name" mapstructure:"name"`
	NodeType    string         `json:"node_type" mapstructure:"node_type"`
	NodeSubtype string         `json:"node_subtype,omitempty" mapstructure:"node_subtype"`
	On          bool           `json:"on" mapstructure:"on"`
	Interface   Schema         `json:"interface,omitempty" mapstructure:"interface"`
	Code        string         `json:"code,omitempty" mapstructure:"code"`
	Handler     string         `json:"handler,omitempty" mapstructure:"handler"`
	StaticInput map[string]any `json:"static_input,omitempty" mapstructure:"static_input"`
	WorkflowID  string         `json:"workflow_id,omitempty" mapstructure:"workflow_id"`
}

// DynamicOptionsRequest asks the engine for the options of a select field.
type DynamicOptionsRequest struct {
	WorkflowID    string `json:"workflow_id" mapstructure:"workflow_id"`
	NodeID        string `json:"node_id" mapstructure:"node_id"`
	OptionsSource string `json:"options_source" mapstructure:"options_source"`
}

// DynamicOptionsResponse is the payload of EventNodeDynamicOptions.
type DynamicOptionsResponse struct {
	OptionsSource string   `mapstructure:"options_source"`
	Options       []Option `mapstructure:"options"`
}

// NodeSubtypesRequest asks for the subtypes of a node type.
type NodeSubtypesRequest struct {
	NodeType string `json:"node_type" mapstructure:"node_type"`
}

// NodeTypesResponse is the payload of EventNodeTypes.
type NodeTypesResponse struct {
	NodeTypes []string `mapstructure:"node_types"`
}

// NodeSubtypesResponse is the payload of EventNodeSubtypes.
type NodeSubtypesResponse struct {
	NodeSubtypes []string `mapstructure:"node_subtypes"`
}

// LinkRequest creates or deletes a link.
type LinkRequest struct {
	WorkflowID string `json:"workflow_id" mapstructure:"workflow_id"`
	Source     string `json:"source" mapstructure:"source"`
	Target     string `json:"target" mapstructure:"target"`
}

// AgentSummary is one entry of the agent list.
type AgentSummary struct {
	ID   string `json:"id" mapstructure:"id"`
	Name string `json:"name" mapstructure:"name"`
}

// AgentListResponse is the payload of EventAgentList.
type AgentListResponse struct {
	Agents []AgentSummary `mapstructure:"agents"`
}

// AgentDetail is the payload of EventAgent.
type AgentDetail struct {
	ID           string         `json:"id" mapstructure:"id" yaml:"id"`
	Name         string         `json:"name" mapstructure:"name" yaml:"name"`
	Version      string         `json:"version" mapstructure:"version" yaml:"version"`
	VersionsList []string       `json:"versions_list" mapstructure:"versions_list" yaml:"versions_list"`
	WorkflowID   string         `json:"workflow_id" mapstructure:"workflow_id" yaml:"workflow_id"`
	Description  string         `json:"description" mapstructure:"description" yaml:"description"`
	Vars         map[string]any `json:"vars" mapstructure:"vars" yaml:"vars"`
	IsStarted    bool           `json:"is_started" mapstructure:"is_started" yaml:"is_started"`
}

// AgentSaveRequest creates (no ID) or updates an agent.
type AgentSaveRequest struct {
	ID          string         `json:"id,omitempty" mapstructure:"id"`
	Name        string         `json:"name,omitempty" mapstructure:"name"`
	Version     string         `json:"version,omitempty" mapstructure:"version"`
	WorkflowID  string         `json:"workflow_id,omitempty" mapstructure:"workflow_id"`
	Description string         `json:"description,omitempty" mapstructure:"description"`
	Vars        map[string]any `json:"vars,omitempty" mapstructure:"vars"`
}

// AgentNewVarRequest adds a typed variable with its default value.
type AgentNewVarRequest struct {
	ID      string `json:"id" mapstructure:"id"`
	VarName string `json:"var_name" mapstructure:"var_name"`
	VarType string `json:"var_type" mapstructure:"var_type"`
}

// AgentImportVarsRequest upserts a variable map.
type AgentImportVarsRequest struct {
	ID        string         `json:"id" mapstructure:"id"`
	Variables map[string]any `json:"variables" mapstructure:"variables"`
}

// AgentDeleteVarRequest removes one variable.
type AgentDeleteVarRequest struct {
	ID      string `json:"id" mapstructure:"id"`
	VarName string `json:"var_name" mapstructure:"var_name"`
}

// Toast is the payload of EventShowToastr. Older engines send the severity
// under level instead of type.
type Toast struct {
	Type    string `json:"type,omitempty" mapstructure:"type"`
	Level   string `json:"level,omitempty" mapstructure:"level"`
	Title   string `json:"title,omitempty" mapstructure:"title"`
	Message string `json:"message" mapstructure:"message"`
}

// Severity returns Type, falling back to Level.
func (t Toast) Severity() string {
	if t.Type != "" {
		return t.Type
	}
	return t.Level
}
