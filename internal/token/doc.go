// Package token caches the Exchange OAuth token triple.
//
// A Store is loaded lazily from a single JSON file the first time it is read
// and written through on every Save. Expiry is tracked as unix seconds with a
// five minute safety buffer applied when the token is received.
package token
