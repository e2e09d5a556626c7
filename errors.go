package lithos

import "fmt"

// KernelError is the error surface shared by every kernel subsystem. Each
// sentinel below can be annotated with context without losing its identity;
// errors.Is always reaches the original sentinel.
type KernelError interface {
	error
	WithMessage(message string) KernelError
	Wrap(err error) KernelError
}

// Errno is a sentinel kernel error. Errors flow outward unmodified until
// they reach the syscall boundary, where they collapse to -1.
type Errno string

// Block layer.
const ErrInvalidBlock = Errno("Invalid block number")
const ErrIOFailed = Errno("Input/output error")
const ErrReadOnly = Errno("Device is read-only")
const ErrDeviceError = Errno("Device error")

// VFS.
const ErrNotFound = Errno("No such file or directory")
const ErrPermissionDenied = Errno("Permission denied")
const ErrAlreadyExists = Errno("File exists")
const ErrNotADirectory = Errno("Not a directory")
const ErrIsADirectory = Errno("Is a directory")
const ErrInvalidPath = Errno("Invalid path")
const ErrNoSpace = Errno("No space left on device")
const ErrBadFileDescriptor = Errno("Bad file descriptor")
const ErrNotInitialized = Errno("Subsystem not initialized")
const ErrNotImplemented = Errno("Function not implemented")

// ELF boundary with the loader.
const ErrInvalidMagic = Errno("Invalid ELF magic number")
const ErrUnsupportedClass = Errno("Unsupported ELF class")
const ErrUnsupportedEndian = Errno("Unsupported endianness")
const ErrInvalidHeader = Errno("Invalid ELF header")

func (e Errno) Error() string {
	return string(e)
}

func (e Errno) WithMessage(message string) KernelError {
	return wrappedError{
		message:       fmt.Sprintf("%s: %s", e.Error(), message),
		originalError: e,
	}
}

func (e Errno) Wrap(err error) KernelError {
	return wrappedError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: err,
		sentinel:      e,
	}
}

// -----------------------------------------------------------------------------

type wrappedError struct {
	message       string
	originalError error
	sentinel      error
}

func (e wrappedError) Error() string {
	return e.message
}

func (e wrappedError) WithMessage(message string) KernelError {
	return wrappedError{
		message:       fmt.Sprintf("%s: %s", e.message, message),
		originalError: e,
	}
}

func (e wrappedError) Wrap(err error) KernelError {
	return wrappedError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: err,
		sentinel:      e,
	}
}

func (e wrappedError) Unwrap() []error {
	if e.sentinel != nil {
		return []error{e.originalError, e.sentinel}
	}
	return []error{e.originalError}
}
