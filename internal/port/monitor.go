package port

// Monitor keeps the index convergent with on-disk state.
type Monitor interface {
	// Start begins watching. Idempotent: returns "started" or
	// "already_running".
	Start() (string, error)

	// Stop halts watching. Idempotent: returns "stopped" or
	// "not_running".
	Stop() string
}
