/*
Package graph is the in-memory scene graph of a workflow canvas.

A Graph holds four kinds of cells: nodes, links, windows and notes. Cells are a
closed tagged variant: every Cell carries a Kind and exactly one attribute
struct matching it. Links join two nodes by their server-assigned custom ids and
are undirected; at most one link exists per unordered pair.

Window membership is never stored. It is derived from geometry with
ContainedNodes whenever a caller needs it.

The layout travels as a Snapshot, an ordered list of cell records tagged by
kind. Node records (interface schema, static input, code) are not part of the
snapshot and are loaded separately per node.

A Graph is not safe for concurrent use.
*/
package graph
