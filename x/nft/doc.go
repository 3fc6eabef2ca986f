/*
Package nft implements non fungible token collections.

A collection is identified by its name and owns tokens identified by a
uint256 id. Besides plain minting by controllers, a collection can sell
tokens through signature authorized minting: the mint signer authorizes a
list of token ids and their prices for a given minter, the minter pays the
sum in the payment token of the collection and receives every token at
once. An id can be minted only once, which makes every authorization single
use.
*/
package nft
