// Package dispatch issues requests to Microsoft Graph and to the local
// Exchange proxy.
//
// Graph calls go through a Dispatcher, which checks the token store before
// any network I/O and then tries its strategies in order: an oauth2 client
// holding the access token as a static bearer, then a plain HTTP client with
// explicit headers. Errors from the last strategy are returned to the caller.
//
// Proxy calls go through a Proxy. Unlike Graph calls they never surface
// errors past the package boundary for the Request and Envelope helpers:
// failures become nil results or error envelopes. Do gives workflows the raw
// response when they need the status code or headers.
package dispatch
