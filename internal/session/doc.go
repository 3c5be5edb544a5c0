// Package session implements the three session-facing components of the
// agent core: the Session Store (C7), the System Prompt Assembler (C8),
// and the Chat Orchestrator (C10).
//
// # Session Store
//
// Store owns the on-disk layout under the data directory exclusively
// through the storage package:
//
//	session/<session-id>/info.json
//	session/<session-id>/messages/<message-id>.json
//
// Create, Get, List, Delete, AddMessage, and GetMessages are its full
// surface; the three that write (Create, AddMessage, Delete) publish the
// matching events (session.created; message.created and session.updated;
// session.deleted) for observers such as a TUI or HTTP skin sitting
// outside the request/response path.
//
// # System Prompt Assembler
//
// AssembleSystemMessages builds the ordered system-message list for a
// turn: a model-family preamble selected by substring of the model id, an
// environment block describing the workspace, any AGENTS.md/CLAUDE.md/
// CONTEXT.md instruction files found walking up from the working
// directory (plus global and config-supplied instruction files), and the
// active mode's own system prompt last. Once assembled, more than two
// entries are compressed to two so providers that cache the first two
// system messages see a stable prefix.
//
// # Chat Orchestrator
//
//	orch := session.NewOrchestrator(providers, modes, tools, store, cfg)
//	chunks, err := orch.RunTurn(ctx, sessionID, "fix the failing test")
//	for chunk := range chunks {
//	    // chunk.Kind is one of content/tool_start/tool_result/tool_error/
//	    // error/complete
//	}
//
// RunTurn resolves the session's mode and model, assembles the request,
// and streams (or synthesises a stream from) the provider's response.
// Tool calls the model emits are dispatched through the Tool Registry in
// emission order and fed back as tool-role messages; the model is
// re-invoked with the augmented history until it stops requesting tools or
// a depth cap is reached. The caller cancels a turn by cancelling the ctx
// passed to RunTurn. Provider-call failures retry with the teacher's
// exponential-backoff-with-jitter idiom before surfacing as an error
// chunk; tool failures never retry automatically and are reported
// in-band so the model can react.
package session
