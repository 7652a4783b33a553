/*
Package workspace binds one open workflow to the engine.

A Workspace owns the graph of the open workflow, a canvas.Controller over
it and a nodeui.Renderer for node interfaces, and it mirrors every change
that the engine must know about through a channel. It implements
canvas.Commands, so the canvas context menu drives it directly.

Local changes are applied first and are not rolled back when the engine
rejects the matching request. A failed workflow save leaves the layout in
the configured ports.DraftStore so it can be restored later.

A Workspace is owned by a single goroutine and does no locking.
*/
package workspace
