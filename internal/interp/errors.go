package interp

// ErrorKind identifies why a command failed. Callers and tests branch on
// the kind, never on the message text.
type ErrorKind int

const (
	ErrMalformedArgument ErrorKind = iota
	ErrIndexOutOfRange
	ErrInvalidChoice
	ErrMissingAccount
	ErrProvider
	ErrDelivery
)

// CmdError is the failure result of a navigation operation.
type CmdError struct {
	Kind   ErrorKind
	Detail string
}

func (e *CmdError) Error() string {
	return e.Detail
}
