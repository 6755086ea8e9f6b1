// Package connection provides stream connection lifecycle management.
//
// The Manager is the connection-management collaborator the entity
// lifecycle dispatches to: entering CONNECTING calls Connect, entering
// DISCONNECTING calls Disconnect. What a connection actually is stays
// behind the DialFunc the application supplies.
//
// An orderly Disconnect never redials. An unexpected drop reported via
// ConnectionLost redials in the background with exponential backoff:
// 1s, 2s, 4s, ... capped at 30s, with up to 20% random jitter on each
// delay, resetting after a successful dial.
package connection
