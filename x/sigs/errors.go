package sigs

import "github.com/herorealm/realm/errors"

// ErrInvalidSequence is returned when a signature carries a sequence other
// than the next one expected for its signer.
var ErrInvalidSequence = errors.Register(120, "invalid sequence")
