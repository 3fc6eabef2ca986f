package utils

import (
	"github.com/herorealm/realm"
)

// ActionTagger appends a "message" event with `action = msg.Path()` to
// every successful delivery, so clients have a standard way to search for
// and subscribe to a kind of transaction.
//
// Place it after the signature decorator so that only authenticated
// transactions are tagged.
type ActionTagger struct{}

var _ realm.Decorator = ActionTagger{}

const (
	// ActionEvent is the type of the event appended by ActionTagger.
	ActionEvent = "message"
	// ActionKey is the attribute key holding the message path.
	ActionKey = "action"
)

// NewActionTagger creates a ActionTagger decorator
func NewActionTagger() ActionTagger {
	return ActionTagger{}
}

// Check just passes the request along
func (ActionTagger) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx, next realm.Checker) (*realm.CheckResult, error) {
	return next.Check(ctx, db, tx)
}

// Deliver appends the action event on success.
func (ActionTagger) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx, next realm.Deliverer) (*realm.DeliverResult, error) {
	// fail early on a broken message, before dispatching
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}

	res, err := next.Deliver(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	res.Events = append(res.Events, realm.NewEvent(ActionEvent, ActionKey, msg.Path()))
	return res, nil
}
