// Package adp implements the discovery/advertisement side of the
// protocol engine: periodic presence announcements, one-shot discovery
// requests, and a registry of peer entities seen on the network.
//
// The advertiser owns the available index, incremented on every
// advertisement it transmits. Discovery requests addressed to this
// entity (or to all entities) are answered with an immediate
// announcement; requests addressed to a different identity are the one
// message category the engine silently ignores.
//
// All operations fail with ErrNotInitialized until the module has been
// given an entity identity.
package adp
