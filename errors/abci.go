package errors

import (
	"errors"
	"fmt"
)

const (
	// SuccessABCICode is the code of a transaction that went through.
	SuccessABCICode = 0

	// Errors that do not wrap a registered root error are reported under
	// a single internal code with a generic message.
	internalABCICode uint32 = 1
	internalABCILog         = "internal error"
)

// ABCIInfo returns the code and log to put into an ABCI response.
//
// Errors without a registered root, and recovered panics, are reported as
// internal errors. Their message is hidden unless debug is set, since it may
// carry details of the host system.
func ABCIInfo(err error, debug bool) (uint32, string) {
	if errIsNil(err) {
		return SuccessABCICode, ""
	}

	code := abciCode(err)
	if debug {
		return code, fmt.Sprintf("%+v", err)
	}
	if code == internalABCICode || ErrPanic.Is(err) {
		return internalABCICode, internalABCILog
	}
	return code, err.Error()
}

type coder interface {
	ABCICode() uint32
}

// abciCode walks the cause chain and returns the first ABCI code found.
func abciCode(err error) uint32 {
	if errIsNil(err) {
		return SuccessABCICode
	}
	for {
		if c, ok := err.(coder); ok {
			return c.ABCICode()
		}
		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return internalABCICode
		}
	}
}

// Redact replaces errors that are not rooted in a registered error, as well
// as recovered panics, with a generic internal error.
//
// This is a no-op in debug mode.
func Redact(err error, debug bool) error {
	if debug || errIsNil(err) {
		return err
	}
	if ErrPanic.Is(err) || abciCode(err) == internalABCICode {
		return errors.New(internalABCILog)
	}
	return err
}

// ABCIError rebuilds an error from the code and log of an ABCI response,
// so that clients can test it with Is. Codes that are not registered are
// reported as internal errors.
func ABCIError(code uint32, log string) error {
	if code == SuccessABCICode {
		return nil
	}
	root, ok := usedCodes[code]
	if !ok {
		root = usedCodes[internalABCICode]
	}
	return Wrap(root, log)
}
