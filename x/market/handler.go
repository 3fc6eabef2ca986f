package market

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/gconf"
	"github.com/herorealm/realm/orm"
	"github.com/herorealm/realm/x"
	"github.com/herorealm/realm/x/nft"
	"github.com/herorealm/realm/x/token"
)

const confPkg = "market"

// RegisterRoutes will instantiate and register all handlers in this
// package.
func RegisterRoutes(r realm.Registry, auth x.Authenticator, nfts nft.Controller, tokens token.Controller) {
	h := &listingHandler{
		auth:     auth,
		nfts:     nfts,
		tokens:   tokens,
		listings: NewListingBucket(),
		royalty:  NewRoyaltyBucket(),
		proceeds: NewProceedsBucket(),
	}
	r.Handle((&ListMsg{}).Path(), h)
	r.Handle((&UpdateListingMsg{}).Path(), h)
	r.Handle((&CancelListingMsg{}).Path(), h)
	r.Handle((&ForceCancelMsg{}).Path(), h)
	r.Handle((&SetRoyaltyMsg{}).Path(), h)
	r.Handle((&BuyMsg{}).Path(), &buyHandler{listingHandler: h})
	r.Handle((&WithdrawProceedsMsg{}).Path(), &withdrawHandler{listingHandler: h})
	r.Handle((&UpdateConfigurationMsg{}).Path(), gconf.NewUpdateConfigurationHandler(confPkg, &Configuration{}, auth))
}

// RegisterQuery exposes listings, royalties and proceeds. Listing query
// data is nft.TokenKey(collection, id), proceeds are queried by address.
func RegisterQuery(qr realm.QueryRouter) {
	NewListingBucket().Register("/market/listings", qr)
	NewRoyaltyBucket().Register("/market/royalties", qr)
	NewProceedsBucket().Register("/market/proceeds", qr)
}

func loadConfig(db realm.ReadOnlyKVStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, confPkg, &conf); err != nil {
		return nil, errors.Wrap(err, "market configuration")
	}
	return &conf, nil
}

func signer(ctx realm.Context, auth x.Authenticator) (common.Address, error) {
	addr, ok := x.MainSigner(ctx, auth)
	if !ok {
		return common.Address{}, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return addr, nil
}

// listingHandler processes listing management. Every message is checked
// and applied by the same code, the check store is discarded.
type listingHandler struct {
	auth     x.Authenticator
	nfts     nft.Controller
	tokens   token.Controller
	listings orm.ModelBucket
	royalty  orm.ModelBucket
	proceeds ProceedsBucket
}

func (h *listingHandler) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	if _, err := h.apply(ctx, db, tx); err != nil {
		return nil, err
	}
	return &realm.CheckResult{}, nil
}

func (h *listingHandler) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	ev, err := h.apply(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return &realm.DeliverResult{Events: []realm.Event{ev}}, nil
}

func (h *listingHandler) apply(ctx realm.Context, db realm.KVStore, tx realm.Tx) (realm.Event, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return realm.Event{}, errors.Wrap(err, "cannot get transaction message")
	}
	if err := msg.Validate(); err != nil {
		return realm.Event{}, errors.Wrap(err, "invalid message")
	}
	caller, err := signer(ctx, h.auth)
	if err != nil {
		return realm.Event{}, err
	}

	switch msg := msg.(type) {
	case *ListMsg:
		return h.list(db, caller, msg)
	case *UpdateListingMsg:
		l, key, err := h.sellerListing(db, caller, msg.Collection, msg.ID)
		if err != nil {
			return realm.Event{}, err
		}
		l.Price = msg.Price
		if err := h.listings.Put(db, key, l); err != nil {
			return realm.Event{}, err
		}
		return listingEvent("listing_updated", msg.Collection, msg.ID, l), nil
	case *CancelListingMsg:
		l, key, err := h.sellerListing(db, caller, msg.Collection, msg.ID)
		if err != nil {
			return realm.Event{}, err
		}
		if err := h.listings.Delete(db, key); err != nil {
			return realm.Event{}, err
		}
		return listingEvent("listing_canceled", msg.Collection, msg.ID, l), nil
	case *ForceCancelMsg:
		if err := h.requireOwner(ctx, db); err != nil {
			return realm.Event{}, err
		}
		key := nft.TokenKey(msg.Collection, msg.ID)
		var l Listing
		if err := h.listings.One(db, key, &l); err != nil {
			return realm.Event{}, errors.Wrap(err, "listing")
		}
		if err := h.listings.Delete(db, key); err != nil {
			return realm.Event{}, err
		}
		return listingEvent("listing_canceled", msg.Collection, msg.ID, &l), nil
	case *SetRoyaltyMsg:
		if err := h.requireOwner(ctx, db); err != nil {
			return realm.Event{}, err
		}
		if _, err := h.nfts.Collection(db, msg.Collection); err != nil {
			return realm.Event{}, err
		}
		if msg.Bps == 0 {
			if err := h.royalty.Delete(db, []byte(msg.Collection)); err != nil && !errors.ErrNotFound.Is(err) {
				return realm.Event{}, err
			}
		} else if err := h.royalty.Put(db, []byte(msg.Collection), &Royalty{Recipient: msg.Recipient, Bps: msg.Bps}); err != nil {
			return realm.Event{}, err
		}
		return realm.NewEvent("royalty_set", "collection", msg.Collection, "recipient", msg.Recipient.Hex()), nil
	default:
		return realm.Event{}, errors.Wrapf(errors.ErrType, "unexpected message %T", msg)
	}
}

func (h *listingHandler) list(db realm.KVStore, seller common.Address, msg *ListMsg) (realm.Event, error) {
	owner, err := h.nfts.OwnerOf(db, msg.Collection, msg.ID)
	if err != nil {
		return realm.Event{}, err
	}
	if owner != seller {
		return realm.Event{}, errors.Wrap(errors.ErrUnauthorized, "not the token owner")
	}
	switch ok, err := h.nfts.CanTransfer(db, msg.Collection, Address(), msg.ID); {
	case err != nil:
		return realm.Event{}, err
	case !ok:
		return realm.Event{}, errors.Wrap(errors.ErrUnauthorized, "market is not approved for the token")
	}
	key := nft.TokenKey(msg.Collection, msg.ID)
	switch exists, err := h.listings.Has(db, key); {
	case err != nil:
		return realm.Event{}, err
	case exists:
		return realm.Event{}, errors.Wrap(errors.ErrDuplicate, "already listed")
	}
	l := &Listing{Seller: seller, Price: msg.Price}
	if err := h.listings.Put(db, key, l); err != nil {
		return realm.Event{}, err
	}
	return listingEvent("listed", msg.Collection, msg.ID, l), nil
}

// sellerListing loads a listing that must belong to the caller.
func (h *listingHandler) sellerListing(db realm.KVStore, caller common.Address, collection string, id *big.Int) (*Listing, []byte, error) {
	key := nft.TokenKey(collection, id)
	var l Listing
	if err := h.listings.One(db, key, &l); err != nil {
		return nil, nil, errors.Wrap(err, "listing")
	}
	if l.Seller != caller {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "not the seller")
	}
	return &l, key, nil
}

func (h *listingHandler) requireOwner(ctx realm.Context, db realm.ReadOnlyKVStore) error {
	conf, err := loadConfig(db)
	if err != nil {
		return err
	}
	if !h.auth.HasAddress(ctx, conf.Owner) {
		return errors.Wrap(errors.ErrUnauthorized, "market owner signature missing")
	}
	return nil
}

func listingEvent(typ, collection string, id *big.Int, l *Listing) realm.Event {
	return realm.NewEvent(typ,
		"collection", collection,
		"id", id.String(),
		"seller", l.Seller.Hex(),
		"price", l.Price.String(),
	)
}

type buyHandler struct {
	*listingHandler
}

func (h *buyHandler) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &realm.CheckResult{}, nil
}

func (h *buyHandler) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	buyer, msg, l, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	conf, err := loadConfig(db)
	if err != nil {
		return nil, err
	}

	market := Address()
	if err := h.tokens.TransferFrom(db, conf.PaymentToken, market, buyer, market, l.Price); err != nil {
		return nil, errors.Wrap(err, "payment")
	}

	sellerShare := new(big.Int).Set(l.Price)
	var r Royalty
	switch err := h.royalty.One(db, []byte(msg.Collection), &r); {
	case err == nil:
		share := r.Share(l.Price)
		sellerShare.Sub(sellerShare, share)
		if err := h.proceeds.Credit(db, r.Recipient, share); err != nil {
			return nil, errors.Wrap(err, "royalty")
		}
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}
	if err := h.proceeds.Credit(db, l.Seller, sellerShare); err != nil {
		return nil, errors.Wrap(err, "seller proceeds")
	}

	if err := h.nfts.Transfer(db, msg.Collection, market, l.Seller, buyer, msg.ID); err != nil {
		return nil, errors.Wrap(err, "token transfer")
	}
	if err := h.listings.Delete(db, nft.TokenKey(msg.Collection, msg.ID)); err != nil {
		return nil, err
	}
	return &realm.DeliverResult{
		Events: []realm.Event{realm.NewEvent("sold",
			"collection", msg.Collection,
			"id", msg.ID.String(),
			"seller", l.Seller.Hex(),
			"buyer", buyer.Hex(),
			"price", l.Price.String(),
		)},
	}, nil
}

func (h *buyHandler) validate(ctx realm.Context, db realm.KVStore, tx realm.Tx) (common.Address, *BuyMsg, *Listing, error) {
	var msg BuyMsg
	if err := realm.LoadMsg(tx, &msg); err != nil {
		return common.Address{}, nil, nil, errors.Wrap(err, "load msg")
	}
	buyer, err := signer(ctx, h.auth)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	var l Listing
	if err := h.listings.One(db, nft.TokenKey(msg.Collection, msg.ID), &l); err != nil {
		return common.Address{}, nil, nil, errors.Wrap(err, "listing")
	}
	if l.Price.Cmp(msg.Amount) != 0 {
		return common.Address{}, nil, nil, errors.Wrapf(errors.ErrAmount, "price is %s, got %s", l.Price, msg.Amount)
	}
	if l.Seller == buyer {
		return common.Address{}, nil, nil, errors.Wrap(errors.ErrInput, "seller cannot buy own listing")
	}
	return buyer, &msg, &l, nil
}

type withdrawHandler struct {
	*listingHandler
}

func (h *withdrawHandler) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &realm.CheckResult{}, nil
}

func (h *withdrawHandler) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	caller, amount, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	conf, err := loadConfig(db)
	if err != nil {
		return nil, err
	}
	if err := h.proceeds.Delete(db, caller.Bytes()); err != nil {
		return nil, err
	}
	if err := h.tokens.Transfer(db, conf.PaymentToken, Address(), caller, amount); err != nil {
		return nil, errors.Wrap(err, "payout")
	}
	return &realm.DeliverResult{
		Events: []realm.Event{realm.NewEvent("proceeds_withdrawn", "account", caller.Hex(), "amount", amount.String())},
	}, nil
}

func (h *withdrawHandler) validate(ctx realm.Context, db realm.KVStore, tx realm.Tx) (common.Address, *big.Int, error) {
	var msg WithdrawProceedsMsg
	if err := realm.LoadMsg(tx, &msg); err != nil {
		return common.Address{}, nil, errors.Wrap(err, "load msg")
	}
	caller, err := signer(ctx, h.auth)
	if err != nil {
		return common.Address{}, nil, err
	}
	amount, err := h.proceeds.Balance(db, caller)
	if err != nil {
		return common.Address{}, nil, err
	}
	if amount.Sign() == 0 {
		return common.Address{}, nil, errors.Wrap(errors.ErrEmpty, "no proceeds")
	}
	return caller, amount, nil
}
