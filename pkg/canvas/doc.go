// Package canvas implements pointer interaction on a workflow graph: pan,
// zoom, drag, resize, linking and context menus.
//
// All interaction state lives in one InteractionState value. The transition
// functions read the graph but never mutate it; they return the next state
// and an Effect describing what should change. A Controller owns the state,
// applies effects to the graph and forwards engine-facing actions to a
// Commands implementation.
package canvas
