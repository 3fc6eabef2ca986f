/*
Package errors implements the error kinds shared by all realm extensions.

Every error returned by a handler should wrap one of the root errors declared
here (or registered by an extension with Register). The root error decides the
ABCI code a client sees; the wrapping layers add context.

The kinds map onto the failure classes of the economy:

	ErrUnauthorized   the caller lacks the required role
	ErrVerification   a structured-data signature did not recover to the authority
	ErrReplay         an authorization was already consumed or used out of order
	ErrState, ErrAmount, ErrInsufficientAmount, ErrNotFound
	                  an invariant of the stored state would be broken

A failing call never leaves partial state behind; the application discards
the transaction's cache wrap.

Wrap attaches a stack trace once, at the innermost wrap. Use %+v to print it.
*/
package errors
