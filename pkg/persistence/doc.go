// Package persistence provides runtime state persistence for entities
// and controllers.
//
// This package handles the JSON serialization of runtime state (active
// configuration, available index, discovered entity records) that must
// survive restarts. Access-control claims are never persisted; an
// acquisition or lock ends with the process that held it.
package persistence
