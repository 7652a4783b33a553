/*
Package channel implements the request/response layer over a duplex Transport.

Every request names an event and gets back a single-shot Future that resolves
with the payload of the paired response event (see protocol.ResponseFor).

# Correlation

In ModeCorrelated (the default) each request carries a fresh request_id. A
response echoing that id resolves exactly its own future. A response without
an id comes from an engine that does not echo ids; it resolves the oldest
pending future of that event name. With two same-named requests in flight this
can hand a response to the wrong caller, so the channel logs a warning when it
has to guess.

ModeFirstArrival never sends ids and always resolves the oldest pending future.

# Lifetimes

Futures can be cancelled directly or through the Scope they were issued in.
A Scope is typically tied to a UI element: closing it when the element goes
away cancels whatever it was still waiting for. Responses arriving for a
cancelled future are logged and dropped.

When the transport fails, every pending future fails with ErrDisconnected and
the channel redials in the background with exponential backoff.
*/
package channel
