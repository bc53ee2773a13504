package exchange

// DefaultOAuthScopes are the Microsoft Graph scopes roombook asks for.
//
// The scopes provide access to:
//   - Calendars: create and cancel room bookings
//   - Places: list rooms and room lists
//   - User: the /me connectivity probe
//   - offline_access: a refresh token
var DefaultOAuthScopes = []string{
	"https://graph.microsoft.com/Calendars.ReadWrite",
	"https://graph.microsoft.com/Place.Read.All",
	"https://graph.microsoft.com/User.Read",
	"offline_access",
}
