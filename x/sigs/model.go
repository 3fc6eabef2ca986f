package sigs

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/orm"
)

// BucketName is where we store the accounts
const BucketName = "sigs"

// maxSequenceValue keeps sequences representable as a javascript number,
// which is what most wallets use to track them.
const maxSequenceValue = (1 << 53) - 1

// UserData tracks the next expected sequence of a signer.
type UserData struct {
	Sequence uint64
}

func (u *UserData) Validate() error {
	if u.Sequence > maxSequenceValue {
		return errors.Wrap(ErrInvalidSequence, "out of range")
	}
	return nil
}

// CheckAndIncrementSequence implements check and increment operation.
// If current sequence value is the same as given expected value then it is
// incremented. Otherwise an error is returned.
func (u *UserData) CheckAndIncrementSequence(expected uint64) error {
	if u.Sequence != expected {
		return errors.Wrapf(ErrInvalidSequence, "mismatch expected %d, got %d", u.Sequence, expected)
	}
	if u.Sequence+1 > maxSequenceValue {
		return errors.Wrap(errors.ErrOverflow, "sequence out of range")
	}
	u.Sequence++
	return nil
}

// Bucket stores UserData by signer address.
type Bucket struct {
	orm.ModelBucket
}

// NewBucket returns the bucket of signer sequences.
func NewBucket() Bucket {
	return Bucket{orm.NewModelBucket(BucketName, &UserData{})}
}

// GetOrCreate returns the user data of the address, a fresh one with
// sequence zero if the address never signed.
func (b Bucket) GetOrCreate(db realm.ReadOnlyKVStore, addr common.Address) (*UserData, error) {
	var u UserData
	switch err := b.One(db, addr.Bytes(), &u); {
	case err == nil:
		return &u, nil
	case errors.ErrNotFound.Is(err):
		return &UserData{}, nil
	default:
		return nil, err
	}
}
