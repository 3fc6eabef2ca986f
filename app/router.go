package app

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
)

// isPath matches a message path, <extension>/<action>.
var isPath = regexp.MustCompile(`^[a-z0-9_]{2,20}/[a-z0-9_]{2,40}$`).MatchString

// Router dispatches a transaction to the handler registered for the path
// of its message.
type Router struct {
	routes map[string]realm.Handler
}

var (
	_ realm.Registry = (*Router)(nil)
	_ realm.Handler  = (*Router)(nil)
)

// NewRouter returns a router without any routes.
func NewRouter() *Router {
	return &Router{routes: make(map[string]realm.Handler, 64)}
}

// Handle registers a handler for the given message path. It panics when the
// path is malformed or already taken, since both can only be caused by a
// programming mistake at startup.
func (r *Router) Handle(path string, h realm.Handler) {
	if !isPath(path) {
		panic(fmt.Sprintf("invalid message path: %q", path))
	}
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("re-registering route: %s", path))
	}
	r.routes[path] = h
}

// Paths returns all registered paths in lexical order.
func (r *Router) Paths() []string {
	paths := make([]string, 0, len(r.routes))
	for p := range r.routes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Check dispatches to the Check method of the registered handler.
func (r *Router) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	h, err := r.handler(tx)
	if err != nil {
		return nil, err
	}
	return h.Check(ctx, db, tx)
}

// Deliver dispatches to the Deliver method of the registered handler.
func (r *Router) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	h, err := r.handler(tx)
	if err != nil {
		return nil, err
	}
	return h.Deliver(ctx, db, tx)
}

func (r *Router) handler(tx realm.Tx) (realm.Handler, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load message")
	}
	if msg == nil {
		return nil, errors.Wrap(errors.ErrEmpty, "message")
	}
	h, ok := r.routes[msg.Path()]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", msg.Path())
	}
	return h, nil
}
