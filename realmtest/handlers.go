package realmtest

import "github.com/herorealm/realm"

// Handler is a mock implementation of the realm.Handler interface. It
// returns the configured results and counts the calls.
type Handler struct {
	checkCall   int
	CheckResult realm.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult realm.DeliverResult
	DeliverErr    error

	// OnDeliver if set is called on every Deliver, before returning.
	OnDeliver func(ctx realm.Context, db realm.KVStore, tx realm.Tx)
}

var _ realm.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	h.checkCall++
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	res := h.CheckResult
	return &res, nil
}

func (h *Handler) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	h.deliverCall++
	if h.OnDeliver != nil {
		h.OnDeliver(ctx, db, tx)
	}
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}
