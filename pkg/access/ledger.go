package access

import (
	"errors"
	"sync"
	"time"

	"github.com/avdecc-protocol/avdecc-go/pkg/wire"
)

// Default expiry deadlines for held claims.
const (
	// AcquireTimeout is how long an acquisition survives without renewal.
	AcquireTimeout = 30 * time.Minute

	// LockTimeout is how long a lock survives without renewal.
	LockTimeout = 10 * time.Minute
)

// Ledger errors.
var (
	// ErrAcquiredByOther indicates another controller holds the acquisition.
	ErrAcquiredByOther = errors.New("access: entity acquired by another controller")

	// ErrLockedByOther indicates another controller holds the lock.
	ErrLockedByOther = errors.New("access: entity locked by another controller")

	// ErrNotHeld indicates the caller does not hold the claim it tried
	// to release.
	ErrNotHeld = errors.New("access: claim not held by caller")
)

// entityClaims is the per-target-entity access record. A zero
// controller ID means the claim is free. Records are created lazily on
// the first acquire or lock attempt and cleared in place, never
// deleted.
type entityClaims struct {
	acquiredBy  wire.EntityID
	lockedBy    wire.EntityID
	acquireTime time.Time
	lockTime    time.Time
}

// Ledger tracks acquisition and lock state for the entities this node
// answers for. It is safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	claims  map[wire.EntityID]*entityClaims
	acquire time.Duration
	lock    time.Duration

	// now is the clock source, replaceable in tests.
	now func() time.Time
}

// NewLedger creates a ledger with the default expiry deadlines.
func NewLedger() *Ledger {
	return &Ledger{
		claims:  make(map[wire.EntityID]*entityClaims),
		acquire: AcquireTimeout,
		lock:    LockTimeout,
		now:     time.Now,
	}
}

// claimsFor returns the record for entityID, creating it lazily.
// Caller must hold mu.
func (l *Ledger) claimsFor(entityID wire.EntityID) *entityClaims {
	c, ok := l.claims[entityID]
	if !ok {
		c = &entityClaims{}
		l.claims[entityID] = c
	}
	return c
}

// Acquire claims ownership of entityID for controllerID. Re-acquiring
// a claim already held by the same controller succeeds and renews the
// deadline. Returns ErrAcquiredByOther without side effects if another
// controller holds the claim.
func (l *Ledger) Acquire(entityID, controllerID wire.EntityID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.claimsFor(entityID)
	if c.acquiredBy != 0 && c.acquiredBy != controllerID {
		return ErrAcquiredByOther
	}
	c.acquiredBy = controllerID
	c.acquireTime = l.now()
	return nil
}

// Release drops the acquisition held by controllerID. Returns
// ErrNotHeld if the caller does not hold it.
func (l *Ledger) Release(entityID, controllerID wire.EntityID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.claims[entityID]
	if !ok || c.acquiredBy != controllerID {
		return ErrNotHeld
	}
	c.acquiredBy = 0
	c.acquireTime = time.Time{}
	return nil
}

// Lock claims the entity lock for controllerID. The lock is orthogonal
// to acquisition. Re-locking by the holder succeeds and renews the
// deadline. Returns ErrLockedByOther if another controller holds it.
func (l *Ledger) Lock(entityID, controllerID wire.EntityID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.claimsFor(entityID)
	if c.lockedBy != 0 && c.lockedBy != controllerID {
		return ErrLockedByOther
	}
	c.lockedBy = controllerID
	c.lockTime = l.now()
	return nil
}

// Unlock drops the lock held by controllerID. Returns ErrNotHeld if
// the caller does not hold it.
func (l *Ledger) Unlock(entityID, controllerID wire.EntityID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.claims[entityID]
	if !ok || c.lockedBy != controllerID {
		return ErrNotHeld
	}
	c.lockedBy = 0
	c.lockTime = time.Time{}
	return nil
}

// IsAcquired returns true if any controller currently holds the
// acquisition on entityID.
func (l *Ledger) IsAcquired(entityID wire.EntityID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.claims[entityID]
	return ok && c.acquiredBy != 0
}

// IsLocked returns true if any controller currently holds the lock on
// entityID.
func (l *Ledger) IsLocked(entityID wire.EntityID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.claims[entityID]
	return ok && c.lockedBy != 0
}

// AcquiredBy returns the controller holding the acquisition, zero if
// free.
func (l *Ledger) AcquiredBy(entityID wire.EntityID) wire.EntityID {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.claims[entityID]
	if !ok {
		return 0
	}
	return c.acquiredBy
}

// LockedBy returns the controller holding the lock, zero if free.
func (l *Ledger) LockedBy(entityID wire.EntityID) wire.EntityID {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.claims[entityID]
	if !ok {
		return 0
	}
	return c.lockedBy
}

// Sweep clears every claim past its deadline and returns the number of
// claims cleared. The command processor calls this at the top of each
// dispatch.
func (l *Ledger) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cleared := 0
	for _, c := range l.claims {
		if c.acquiredBy != 0 && now.Sub(c.acquireTime) > l.acquire {
			c.acquiredBy = 0
			c.acquireTime = time.Time{}
			cleared++
		}
		if c.lockedBy != 0 && now.Sub(c.lockTime) > l.lock {
			c.lockedBy = 0
			c.lockTime = time.Time{}
			cleared++
		}
	}
	return cleared
}
