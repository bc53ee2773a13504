// Package exchange implements the authentication workflow: checking the
// proxy's session, producing an authorization URL, turning an authorization
// code or raw callback form into a stored token, and refreshing that token
// against the Microsoft identity platform.
//
// Every operation returns an envelope; none of them return Go errors.
package exchange
