package gconf

import (
	"reflect"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/x"
)

// OwnedConfig must have an Owner field. A configuration update message must
// be authorized by the owner in order to apply the change.
type OwnedConfig interface {
	Configuration
	GetOwner() common.Address
}

// UpdateConfigurationHandler applies a configuration patch. The message
// must have a Patch field holding a configuration of the same type. Only the
// non zero fields of the patch are applied.
type UpdateConfigurationHandler struct {
	pkg string
	// We require this type to load the data.
	config OwnedConfig
	auth   x.Authenticator
}

var _ realm.Handler = (*UpdateConfigurationHandler)(nil)

// NewUpdateConfigurationHandler returns a message handler that process
// configuration patch message.
//
// The configuration must exist, usually created from genesis. To pass
// authentication, each message must be authorized by the current
// configuration owner.
func NewUpdateConfigurationHandler(pkg string, config OwnedConfig, auth x.Authenticator) UpdateConfigurationHandler {
	return UpdateConfigurationHandler{
		pkg:    pkg,
		config: config,
		auth:   auth,
	}
}

func (h UpdateConfigurationHandler) Check(ctx realm.Context, store realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	if err := h.applyTx(ctx, store, tx); err != nil {
		return nil, err
	}
	return &realm.CheckResult{}, nil
}

func (h UpdateConfigurationHandler) Deliver(ctx realm.Context, store realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	if err := h.applyTx(ctx, store, tx); err != nil {
		return nil, err
	}
	return &realm.DeliverResult{
		Events: []realm.Event{realm.NewEvent("config_updated", "package", h.pkg)},
	}, nil
}

func (h UpdateConfigurationHandler) applyTx(ctx realm.Context, store realm.KVStore, tx realm.Tx) error {
	// Each call works on a fresh copy so the handler can be shared.
	config := reflect.New(reflect.TypeOf(h.config).Elem()).Interface().(OwnedConfig)
	if err := Load(store, h.pkg, config); err != nil {
		return errors.Wrap(err, "load current configuration")
	}
	owner := config.GetOwner()
	if owner == (common.Address{}) {
		return errors.Wrap(errors.ErrUnauthorized, "configuration has no owner")
	}
	if !h.auth.HasAddress(ctx, owner) {
		return errors.Wrap(errors.ErrUnauthorized, "owner did not authorize the change")
	}

	payload, err := patchPayload(tx)
	if err != nil {
		return errors.Wrap(err, "cannot get message payload")
	}
	if err := patch(config, payload); err != nil {
		return errors.Wrap(err, "cannot patch config with message payload")
	}
	if err := Save(store, h.pkg, config); err != nil {
		return errors.Wrap(err, "cannot save updated config")
	}
	return nil
}

func patch(config OwnedConfig, payload OwnedConfig) error {
	if reflect.TypeOf(payload) != reflect.TypeOf(config) {
		return errors.Wrap(errors.ErrMsg, "config in message doesn't match store")
	}

	cval := reflect.ValueOf(config).Elem()
	pval := reflect.ValueOf(payload).Elem()
	for i := 0; i < cval.NumField(); i++ {
		got := pval.Field(i)
		// Zero values do not update the original configuration.
		if got.IsZero() {
			continue
		}
		cval.Field(i).Set(got)
	}
	return nil
}

// patchPayload expects the transaction to have a message with "Patch" field of
// the same type as the configuration. Content of this field is extracted and
// returned.
func patchPayload(tx realm.Tx) (OwnedConfig, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	pval := reflect.ValueOf(msg)
	if pval.Kind() != reflect.Ptr || pval.Elem().Kind() != reflect.Struct {
		return nil, errors.Wrapf(errors.ErrInput, "invalid message container value: %T", msg)
	}
	field := pval.Elem().FieldByName("Patch")
	if !field.IsValid() || field.Kind() != reflect.Ptr {
		return nil, errors.Wrap(errors.ErrInput, `"Patch" field is missing`)
	}
	if field.IsNil() {
		return nil, errors.Wrap(errors.ErrState, `"Patch" field is required`)
	}
	payload, ok := field.Interface().(OwnedConfig)
	if !ok {
		return nil, errors.Wrap(errors.ErrInput, `"Patch" field is of a wrong type`)
	}
	return payload, nil
}
