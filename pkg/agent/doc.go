// Package agent edits agents on the engine: their fields, their run state
// and their variables.
//
// The Editor tracks one selected agent. Start and stop icons only change
// after the engine confirms the transition. Variable imports are merges:
// the editor sends the current variables with the incoming ones laid over
// them, so engines that replace the map wholesale still end up merged.
package agent
