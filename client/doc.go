/*
Package client talks to a realm node over the Tendermint RPC: it signs and
broadcasts transactions and runs application queries.
*/
package client
