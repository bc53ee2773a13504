package instrumentation

import "strings"

// ExtractDomain returns the domain part of a mailbox address, used to keep
// room mailbox labels low-cardinality.
//
// Example:
//
//	ExtractDomain("boardroom@contoso.com")  // "contoso.com"
//	ExtractDomain("room-42")                // "unknown"
//	ExtractDomain("")                       // "unknown"
func ExtractDomain(address string) string {
	if address == "" {
		return "unknown"
	}

	parts := strings.Split(address, "@")
	if len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}

	return "unknown"
}

// Operation types used in spans and audit logs.
const (
	OperationList      = "list"
	OperationGet       = "get"
	OperationBook      = "book"
	OperationCancel    = "cancel"
	OperationStatus    = "status"
	OperationAuthorize = "authorize"
	OperationCallback  = "callback"
	OperationRefresh   = "refresh"
	OperationProbe     = "probe"
)
