/*
Package x contains the extensions of the realm economy.

Extensions implement common functionality (Handler, Decorator, etc.) and are
combined together in the application. This package holds the pieces shared by
all of them: the Authenticator abstraction and the call frame used when a
module account acts on its own behalf.
*/
package x
