package domain

import "errors"

// Sentinel errors shared across the pipeline. Adapters wrap these so
// callers can branch with errors.Is without importing storage
// packages.
var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates a value failed boundary validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyResolved indicates an attempt to re-resolve a closed
	// trade. Outcomes are immutable once set.
	ErrAlreadyResolved = errors.New("trade already resolved")

	// ErrStalePrice indicates a cached price is older than the
	// configured freshness window.
	ErrStalePrice = errors.New("stale price")

	// ErrStrategyFailed indicates a detection strategy returned an
	// error. The scan continues; the failure is recorded per strategy.
	ErrStrategyFailed = errors.New("strategy failed")

	// ErrLockHeld indicates a distributed lock is owned elsewhere.
	ErrLockHeld = errors.New("lock held")
)
