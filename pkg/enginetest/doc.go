// Package enginetest provides an in-memory workflow engine that speaks the
// full request/response contract. It backs package tests and the warp
// dev-engine command.
//
// The engine can answer in either result shape, can run in legacy mode
// (no request id echo), and can be told to fail or ignore specific
// requests.
package enginetest
