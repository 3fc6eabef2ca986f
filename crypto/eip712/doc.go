/*
Package eip712 hashes, signs and verifies EIP-712 structured data.

An authority (vault signer, mint signer) signs a typed message off-chain. A
handler rebuilds the same message from the transaction, hashes it under the
domain of the verifying contract and recovers the signer from the signature.
Any difference in a field, in the domain or in the chain id yields a
different recovered address, so the check fails closed.

Schemas are declared with the Solidity style type string:

	var transferSchema = eip712.MustParseSchema(
		"VaultTransfer(address recipient,uint256 amount,uint256 claimId)")

Supported field types are address, uint256, uint64, bool, string, bytes32
and the dynamic arrays address[] and uint256[].
*/
package eip712
