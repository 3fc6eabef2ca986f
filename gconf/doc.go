/*
Package gconf implements a configuration store intended to be used as a
global, in-database configuration of an extension.

Each extension keeps a single configuration object, saved under the
"_c:<package>" key. The configuration is loaded from the genesis file and can
later be patched by its owner with an update configuration message.
*/
package gconf
