// Package api implements the HTTP REST API and WebSocket server for Show Logic Core.
//
// This package provides:
//   - REST endpoints for action CRUD, manual and ad-hoc runs, custom activations
//   - Read access to the running set, the trigger history and notifications
//   - Slide action editing against the mirrored presentation state
//   - The audit trail of action edits
//   - WebSocket hub broadcasting running, history and toast changes
//   - Bearer token authentication with ticket-based WebSocket auth
//
// # Security
//
// Tokens are HS256 JWTs signed with security.jwt.secret and minted with
// "showlogic token". WebSocket connections use single-use tickets so the
// token never appears in a URL.
//
// # Graceful Degradation
//
// The server operates without MQTT. Everything works except publishing
// edited layouts back to the presentation application.
package api
