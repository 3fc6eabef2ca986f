package nft

import (
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/x"
)

// adminHandler processes all messages that modify a collection definition.
// All of them require the signature of the collection admin.
type adminHandler struct {
	auth x.Authenticator
	ctrl BaseController
}

func (h *adminHandler) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &realm.CheckResult{}, nil
}

func (h *adminHandler) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	col, msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	switch msg := msg.(type) {
	case *SetBaseURIMsg:
		col.BaseURI = msg.BaseURI
	case *SetMintSignerMsg:
		col.MintSigner = msg.Signer
	case *SetVaultMsg:
		col.Vault = msg.Vault
	case *SetDomainMsg:
		col.DomainName = msg.Name
		col.DomainVersion = msg.Version
	case *PauseMsg:
		if col.Paused == msg.Paused {
			return nil, errors.Wrapf(errors.ErrState, "paused is already %v", col.Paused)
		}
		col.Paused = msg.Paused
	case *AddControllerMsg:
		if col.IsController(msg.Controller) {
			return nil, errors.Wrapf(errors.ErrDuplicate, "controller %s", msg.Controller.Hex())
		}
		col.Controllers = append(col.Controllers, msg.Controller)
	case *RemoveControllerMsg:
		if !col.IsController(msg.Controller) {
			return nil, errors.Wrapf(errors.ErrNotFound, "controller %s", msg.Controller.Hex())
		}
		kept := col.Controllers[:0]
		for _, c := range col.Controllers {
			if c != msg.Controller {
				kept = append(kept, c)
			}
		}
		col.Controllers = kept
	}

	if err := h.ctrl.collections.Put(db, []byte(col.Name), col); err != nil {
		return nil, errors.Wrap(err, "save collection")
	}
	return &realm.DeliverResult{
		Events: []realm.Event{realm.NewEvent("collection_updated", "collection", col.Name, "action", msg.Path())},
	}, nil
}

func (h *adminHandler) validate(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*Collection, realm.Msg, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot get transaction message")
	}
	if err := msg.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "invalid message")
	}

	var name string
	switch msg := msg.(type) {
	case *SetBaseURIMsg:
		name = msg.Collection
	case *SetMintSignerMsg:
		name = msg.Collection
	case *SetVaultMsg:
		name = msg.Collection
	case *SetDomainMsg:
		name = msg.Collection
	case *PauseMsg:
		name = msg.Collection
	case *AddControllerMsg:
		name = msg.Collection
	case *RemoveControllerMsg:
		name = msg.Collection
	default:
		return nil, nil, errors.Wrapf(errors.ErrType, "unexpected message %T", msg)
	}

	col, err := h.ctrl.Collection(db, name)
	if err != nil {
		return nil, nil, err
	}
	if !h.auth.HasAddress(ctx, col.Admin) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "admin signature missing")
	}
	return col, msg, nil
}
