package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and lockers return these
// (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: a storage-level uniqueness constraint fired
// - ErrSerialization: the storage engine aborted a transaction to preserve isolation
// - ErrLockUnavailable: the identity advisory lock is held by a concurrent writer
// - ErrUnavailable: backing service temporarily unreachable
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrSerialization   = errors.New("serialization failure")
	ErrLockUnavailable = errors.New("lock unavailable")
	ErrUnavailable     = errors.New("unavailable")
)
