package sigs

import (
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
)

func init() {
	realm.RegisterMsg(&BumpSequenceMsg{})
}

const (
	maxSequenceIncrement = 1000
	minSequenceIncrement = 1
)

// BumpSequenceMsg increments the sequence of the main signer, invalidating
// any transaction signed in advance for the skipped sequences.
type BumpSequenceMsg struct {
	Increment uint32
}

func (*BumpSequenceMsg) Path() string {
	return "sigs/bump_sequence"
}

func (msg *BumpSequenceMsg) Validate() error {
	if msg.Increment < minSequenceIncrement {
		return errors.Wrapf(errors.ErrMsg, "increment must be at least %d", minSequenceIncrement)
	}
	if msg.Increment > maxSequenceIncrement {
		return errors.Wrapf(errors.ErrMsg, "increment must not be greater than %d", maxSequenceIncrement)
	}
	return nil
}
