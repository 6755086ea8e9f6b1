// Package access tracks per-entity acquisition and locking state.
//
// Acquisition (exclusive ownership for configuration) and locking
// (a secondary exclusivity claim) are orthogonal flags held per target
// entity. At most one controller may hold each flag at a time.
//
// # Expiry
//
// Acquisitions expire after 30 minutes and locks after 10 minutes of
// inactivity. Expiry is swept lazily: the command processor calls
// Sweep at the top of every dispatch. Under sparse traffic a stale
// claim can therefore outlive its deadline until the next command
// arrives; embedders that care can call Sweep on their own timer.
package access
