/*
Package nodeui turns a node's interface schema and stored values into a form,
and turns form submissions back into a complete static input map.

A Renderer owns one Panel per open node. Opening a panel builds its Form,
starts dynamic option fetches for select fields that declare an options
source, and grows the node to fit the form. Closing it cancels the fetches
and restores the node's previous size exactly.

Option results are produced on background goroutines but only ever applied
to the form by Panel.Apply or Panel.Await, on the goroutine that owns the
Renderer. Nothing else in the package is safe for concurrent use.
*/
package nodeui
