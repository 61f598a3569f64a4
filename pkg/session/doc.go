// Package session is the coordination layer for conversation sessions.
//
// A session is the unit of work for one conversation. Each live session
// owns four structures that the Registry creates together and tears
// down together:
//
//   - a lifecycle state machine (package state)
//   - an importance-ranked context store (package contextstore)
//   - a flow controller tracking engagement and coherence (package flow)
//   - a token budget manager (package budget)
//
// # Usage
//
//	registry := session.New(session.Config{MaxTokens: 8192}, session.Deps{})
//	id, err := registry.Create()
//	if err != nil {
//		return err
//	}
//	if err := registry.Activate(id, "client connected"); err != nil {
//		return err
//	}
//	if err := registry.Append(id, conversation.NewMessage(conversation.RoleUser, "hello", time.Now())); err != nil {
//		return err
//	}
//	defer registry.Teardown(context.Background(), id)
//
// All Registry methods are safe for concurrent use. Operations on the
// same session are serialized, so a Teardown never observes a session
// with some structures cleared and others still live.
package session
