package sigs

import (
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/x"
)

// RegisterRoutes registers the sequence bump handler.
func RegisterRoutes(r realm.Registry, auth x.Authenticator) {
	r.Handle((&BumpSequenceMsg{}).Path(), &bumpSequenceHandler{
		b:    NewBucket(),
		auth: auth,
	})
}

type bumpSequenceHandler struct {
	auth x.Authenticator
	b    Bucket
}

func (h *bumpSequenceHandler) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &realm.CheckResult{}, nil
}

func (h *bumpSequenceHandler) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	user, msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	// Signature verification already bumped the sequence by one.
	incr := uint64(msg.Increment) - 1
	if incr == 0 {
		return &realm.DeliverResult{}, nil
	}
	user.Sequence += incr
	signer, _ := x.MainSigner(ctx, h.auth)
	if err := h.b.Put(db, signer.Bytes(), user); err != nil {
		return nil, errors.Wrap(err, "save user")
	}
	return &realm.DeliverResult{}, nil
}

func (h *bumpSequenceHandler) validate(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*UserData, *BumpSequenceMsg, error) {
	var msg BumpSequenceMsg
	if err := realm.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}

	signer, ok := x.MainSigner(ctx, h.auth)
	if !ok {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	var user UserData
	if err := h.b.One(db, signer.Bytes(), &user); err != nil {
		return nil, nil, errors.Wrap(err, "no sequence")
	}
	if user.Sequence+uint64(msg.Increment) > maxSequenceValue {
		return nil, nil, errors.Wrap(errors.ErrOverflow, "user sequence")
	}
	return &user, &msg, nil
}
