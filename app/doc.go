/*
Package app contains the building blocks of an ABCI application: a router
dispatching messages to handlers, a chain of decorators around it, the
transaction format and a StoreApp/BaseApp pair that connects all of them to
a commit store and to Tendermint.
*/
package app
