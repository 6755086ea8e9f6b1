// Package entity orchestrates the protocol engine lifecycle.
//
// The Engine owns the authoritative lifecycle state and runs two
// independent loops: an event loop that consumes lifecycle events and
// drives the transition table, and a message loop that consumes
// inbound frames and routes them by protocol tag to the command
// processor (control), the advertiser (discovery), or the connection
// collaborator.
//
// State transitions that imply long-running work (bringing up
// sub-protocols, establishing a connection) dispatch that work to a
// goroutine; the outcome returns to the loop as a new event. The
// lifecycle state itself is written only by the event loop.
package entity
