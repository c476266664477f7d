package core_domain

// IsLegalTransition reports whether a message may move from oldState to
// newState. The machine is forward-only: NEW -> PROCESSED is the single legal
// edge. Repeating PROCESSED or moving back to NEW is illegal; callers treat an
// illegal transition as a no-op since it usually means a stale snapshot was
// re-polled.
func IsLegalTransition(oldState, newState ProcessingState) bool {
	return oldState == StateNew && newState == StateProcessed
}
