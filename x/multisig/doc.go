/*
Package multisig implements N-of-M wallets that govern the privileged
operations of the other extensions.

A wallet has a set of owners and a required number of confirmations. Any
owner may submit a transaction, which is a value transfer of the native
token to a target together with an optional encoded message. Owners confirm
or revoke their confirmation while the transaction is pending. After every
confirmation the engine attempts execution: once the confirmations of
current owners reach the requirement, the value is moved and the message is
dispatched through the application router with the wallet as the only
authenticated caller.

A failing execution does not fail the confirmation. The transaction stays
pending, a multisig_execution_failed event is emitted and the next
confirmation retries it.

Owner management and withdrawals are only accepted when the wallet itself
is the caller, so a wallet can only change through its own quorum.
*/
package multisig
