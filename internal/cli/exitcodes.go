package cli

// Exit codes for fixpoint.
const (
	// ExitSuccess indicates successful execution. Circuit-broken runs exit
	// zero: the breaker is a safety stop, not a failure.
	ExitSuccess = 0

	// ExitRunFailed indicates a phase aborted on a fatal error.
	ExitRunFailed = 1

	// ExitInvalidUsage indicates invalid command-line usage.
	ExitInvalidUsage = 64

	// ExitConfigError indicates configuration errors.
	ExitConfigError = 65

	// ExitInternalError indicates an internal error.
	ExitInternalError = 70

	// ExitIOError indicates file I/O errors.
	ExitIOError = 74
)
