/*
Package token implements fungible tokens. Each token is identified by its
ticker and has an admin, a set of controllers allowed to mint, and a paused
flag that freezes all balance movements.

Other extensions move funds through the Controller. The native asset of the
chain is a token like any other; the multisig wallet withdraws it by ticker.
*/
package token
