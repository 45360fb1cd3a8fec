package box

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidVersion  = errors.New("box: invalid version")
	ErrInvalidFlags    = errors.New("box: invalid flags")
	// ErrInvalidSize marks a box whose declared size is smaller than its own
	// header. Unlike a truncated box, the walk of the enclosing buffer stops
	// there instead of advancing by the declared size: the next header
	// position would fall inside this one.
	ErrInvalidSize     = errors.New("box: size smaller than header")
	ErrTruncatedHeader = errors.New("box: truncated header")
	ErrTruncatedBox    = errors.New("box: content extends past buffer")
	ErrTooDeep         = errors.New("box: containers nested too deep")
)

// UnsupportedInputError is returned by Parse when the input is not a byte buffer.
type UnsupportedInputError struct {
	Type string
}

func (e *UnsupportedInputError) Error() string {
	return fmt.Sprintf("box: unrecognized input %s, give a []byte, a Bytes() []byte value or an io.Reader", e.Type)
}

// DecodeError is a failure local to one box.
type DecodeError struct {
	Type   BoxType
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("box %q at offset %d: %v", e.Type.String(), e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
