/*
Package warp is a client for a node-graph workflow engine.

A workflow is a graph of typed nodes joined by undirected links, laid out on
a canvas together with container windows and free text notes. The engine
owns the nodes, links and agents; warp owns the layout and keeps it in sync
through a request/response channel carried over websocket or newline
delimited JSON.

# Layout

  - pkg/channel correlates requests with responses, scopes them to cells
    and reconnects with backoff.
  - pkg/graph holds the scene model and its snapshot format.
  - pkg/canvas turns pointer gestures into edits and menu actions.
  - pkg/nodeui renders node interfaces as forms.
  - pkg/workspace and pkg/agent are the editors bound to the engine.
  - pkg/enginetest is an in-memory engine used by tests and the dev-engine
    command.

# Usage

	ch := channel.New(websocket.Dialer("ws://localhost:5000/ws", nil))
	if err := ch.Open(ctx); err != nil {
		log.Fatal(err)
	}
	defer ch.Close()

	ws := workspace.New(ch, workspace.WithDraftStore(file.NewStore(".warp/drafts")))
	list, err := ws.ListWorkflows(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if err := ws.OpenWorkflow(ctx, list[0].ID); err != nil {
		log.Fatal(err)
	}
*/
package warp
