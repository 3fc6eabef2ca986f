/*
Package vault implements signature authorized transfers out of a token
vault.

An off chain authority signs a VaultTransfer(recipient, amount, claimId)
message. The recipient submits the signature together with the amount. The
claim id is never part of the message: the handler takes it from the claim
ledger, where every recipient has a counter of accepted claims. A signature
is therefore bound to a single position in the sequence and cannot be used
twice or out of order.
*/
package vault
