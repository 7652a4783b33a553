/*
Package protocol defines the wire contract between the warp client core and a remote
workflow engine.

Every message is an Envelope carrying a named event, an optional correlation id and a
JSON object payload. Requests are paired with a response event (see ResponseFor); the
engine may also push unsolicited events such as EventShowToastr.

Payload keys follow the engine's snake_case naming. Two result shapes coexist on the
wire ({"message": "success"|"error"} and {"success": bool}); Result unifies them.
*/
package protocol
