// Package fault defines the error kinds shared by the engine packages.
//
// Operations wrap one of the sentinels below with context:
//
//	return fmt.Errorf("%w: section %dx%d at %d,%d exceeds %dx%d", fault.ErrOutOfBounds, ...)
//
// and callers branch with errors.Is.
package fault

import "errors"

var (
	// ErrIllegalState reports an operation invalid in the object's current state,
	// such as destroying a scene that is still bound to a window.
	ErrIllegalState = errors.New("illegal state")

	// ErrIllegalArgument reports an invalid parameter value.
	ErrIllegalArgument = errors.New("illegal argument")

	// ErrOutOfBounds reports an index or rectangle outside its valid range.
	ErrOutOfBounds = errors.New("out of bounds")

	// ErrOutOfMemory reports a fixed capacity that has been exhausted.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrUnsupported reports a format or feature the engine does not handle.
	ErrUnsupported = errors.New("unsupported")

	// ErrPlatform reports a failure inside the windowing or graphics backend.
	ErrPlatform = errors.New("platform error")

	// ErrIO reports a failure reading an asset or config file.
	ErrIO = errors.New("i/o error")
)

// Kind returns the sentinel err wraps, or nil if it wraps none of them.
func Kind(err error) error {
	for _, k := range []error{
		ErrIllegalState,
		ErrIllegalArgument,
		ErrOutOfBounds,
		ErrOutOfMemory,
		ErrUnsupported,
		ErrPlatform,
		ErrIO,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
