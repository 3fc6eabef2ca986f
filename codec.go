package realm

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/herorealm/realm/errors"
)

var isMsgPath = regexp.MustCompile(`^[a-z0-9_]{2,20}/[a-z0-9_]{2,40}$`).MatchString

var msgRegistry = struct {
	sync.RWMutex
	types map[string]reflect.Type
}{types: make(map[string]reflect.Type)}

// RegisterMsg makes a message type known to the codec so that it can be
// carried inside transactions and multisig payloads. Every extension
// registers its messages in an init function.
//
// Registering the same path twice panics.
func RegisterMsg(m Msg) {
	path := m.Path()
	if !isMsgPath(path) {
		panic(fmt.Sprintf("invalid message path %q", path))
	}
	typ := reflect.TypeOf(m)
	if typ.Kind() != reflect.Ptr {
		panic(fmt.Sprintf("message %T must be registered as a pointer", m))
	}

	msgRegistry.Lock()
	defer msgRegistry.Unlock()
	if prev, ok := msgRegistry.types[path]; ok {
		panic(fmt.Sprintf("path %q already registered for %s", path, prev))
	}
	msgRegistry.types[path] = typ.Elem()
}

// RegisteredPaths returns all registered message paths, sorted.
func RegisteredPaths() []string {
	msgRegistry.RLock()
	defer msgRegistry.RUnlock()
	paths := make([]string, 0, len(msgRegistry.types))
	for p := range msgRegistry.types {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// envelope is the tagged representation of a message. The path selects
// the concrete type, the body is its RLP encoding.
type envelope struct {
	Path string
	Body []byte
}

// EncodeMsg serializes a registered message together with its path.
func EncodeMsg(m Msg) ([]byte, error) {
	if m == nil {
		return nil, errors.Wrap(errors.ErrEmpty, "message")
	}
	msgRegistry.RLock()
	_, ok := msgRegistry.types[m.Path()]
	msgRegistry.RUnlock()
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "unregistered message %q", m.Path())
	}
	body, err := rlp.EncodeToBytes(m)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "encode %T: %s", m, err)
	}
	raw, err := rlp.EncodeToBytes(envelope{Path: m.Path(), Body: body})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "encode envelope: %s", err)
	}
	return raw, nil
}

// DecodeMsg parses the output of EncodeMsg. Unknown paths result in
// ErrType, malformed input in ErrInput.
func DecodeMsg(raw []byte) (Msg, error) {
	if len(raw) == 0 {
		return nil, errors.Wrap(errors.ErrEmpty, "message")
	}
	var env envelope
	if err := rlp.DecodeBytes(raw, &env); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "decode envelope: %s", err)
	}

	msgRegistry.RLock()
	typ, ok := msgRegistry.types[env.Path]
	msgRegistry.RUnlock()
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "unknown message path %q", env.Path)
	}

	ptr := reflect.New(typ)
	if err := rlp.DecodeBytes(env.Body, ptr.Interface()); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "decode %s: %s", env.Path, err)
	}
	msg, ok := ptr.Interface().(Msg)
	if !ok {
		return nil, errors.Wrapf(errors.ErrHuman, "%s does not implement Msg", typ)
	}
	return msg, nil
}
