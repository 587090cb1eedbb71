package winapi

import "fmt"

// Error kinds per spec.md §7. Static cases are plain sentinel values;
// cases that must carry dynamic context (address, handler name) get a
// small struct type, mirroring the split the teacher itself makes
// between its static Err* values in pe/helper.go and the free-form
// strings it appends to Anomalies for context-dependent cases.

// ErrUnknownStub is raised when interrupt 0xFE fires at a guest
// address not registered in the trampoline or patch tables.
type ErrUnknownStub struct {
	Addr uint32
}

func (e *ErrUnknownStub) Error() string {
	return fmt.Sprintf("winapi: no stub registered at 0x%08X", e.Addr)
}

// ErrHandlerFault wraps a panic or error raised from inside a Win32
// handler, with the handler's dll!name for diagnostics.
type ErrHandlerFault struct {
	DLL     string
	Name    string
	Wrapped error
}

func (e *ErrHandlerFault) Error() string {
	return fmt.Sprintf("winapi: handler %s!%s faulted: %v", e.DLL, e.Name, e.Wrapped)
}

func (e *ErrHandlerFault) Unwrap() error { return e.Wrapped }

// ErrSchedulerIdle is raised when Sleep has been called repeatedly with
// no runnable thread present, the liveness safeguard of spec.md §5.
type ErrSchedulerIdle struct {
	SleepCount int
}

func (e *ErrSchedulerIdle) Error() string {
	return fmt.Sprintf("winapi: scheduler idle after %d Sleep calls with no runnable thread", e.SleepCount)
}

// GuestTerminated is not an error in the Go sense — ExitProcess halts
// the interpreter cleanly — but the exit code has to travel back to
// Run's caller somehow, so it rides along as a typed value the run
// loop recognizes.
type GuestTerminated struct {
	ExitCode int32
}

func (e *GuestTerminated) Error() string {
	return fmt.Sprintf("guest exited with code %d", e.ExitCode)
}
