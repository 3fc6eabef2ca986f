/*
Package server holds the commands of the node binary: writing the genesis
app_state, validating a genesis and running the ABCI server together with
the metrics endpoint.
*/
package server
