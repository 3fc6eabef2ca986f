/*
Package orm provides typed buckets over a KVStore.

A ModelBucket stores one kind of model under its own key prefix. Models are
serialized with RLP, the same encoding the messages use, and are validated on
every write. A Sequence is a monotonic counter kept in the store, used to
generate ids.
*/
package orm
