// Package stage defines the cooperative single-threaded step contract
// every pipeline stage (sastage, sphostage) implements (spec.md §5).
package stage

// Status is the result of one Step call. A host loop drives the
// pipeline by repeatedly calling Step until it returns Idle or Error,
// pulling from upstream and pushing downstream via bounded byte
// buffers between calls.
type Status int

const (
	// Busy means the stage made progress and has more work queued;
	// the host should call Step again without waiting on new input.
	Busy Status = iota
	// Atomic means the stage is mid-phrase and the caller must not
	// interleave other work before the next Step call.
	Atomic
	// Idle means the stage has drained its input and is waiting for
	// more; the host should supply input before calling Step again.
	Idle
	// OutFull means the stage's output buffer has no room; the host
	// must drain it before calling Step again.
	OutFull
	// Error means the stage hit a fatal error (spec.md §7) and will
	// not produce further output until the host issues a Reset.
	Error
)

// String renders a Status for logging.
func (s Status) String() string {
	switch s {
	case Busy:
		return "busy"
	case Atomic:
		return "atomic"
	case Idle:
		return "idle"
	case OutFull:
		return "out-full"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Mode selects which pass a Step call should perform; stages that have
// only one pass ignore it.
type Mode int

// ResetMode selects the depth of a stage reset (spec.md §6).
type ResetMode int

const (
	// Soft clears transient buffers only.
	Soft ResetMode = iota
	// Full also drops the knowledge-base handles the stage was built
	// with; neither stage offers a call that binds new ones afterwards.
	Full
)

// Stage is the cooperative step contract every pipeline stage satisfies.
type Stage interface {
	// Step runs one bounded unit of work and reports the resulting
	// status.
	Step(mode Mode) Status
	// Reset clears the stage's internal state per the given ResetMode.
	Reset(mode ResetMode)
}
