/*
Package market implements a peer to peer marketplace for collection
tokens.

A seller lists a token at a fixed price after allowing the market account
to transfer it. A buyer pays exactly the listed price in the payment token
of the market. The price is split between the seller and the royalty
recipient of the collection and kept as proceeds, which every account
withdraws on its own.
*/
package market
