/*
Package realm defines the interfaces shared by every extension of the game
economy state machine: storage, messages, transactions, handlers and the
context values passed between the application, middleware and handlers.

Each contract of the economy (fungible tokens, NFT collections, the
marketplace, the vault and the multisig wallet) lives in its own extension
package under x/ and is wired together by the app package. Extensions never
talk to global state: every handler receives the key-value store it may
modify, and the application guarantees that the store is written only when
the whole transaction succeeded.
*/
package realm
