// Package soap implements the QuickBooks Web Connector protocol: the
// session state machine and the export orchestration loop behind the SOAP
// endpoint.
package soap

// Call is a Web Connector protocol operation name.
type Call string

const (
	CallServerVersion      Call = "serverVersion"
	CallClientVersion      Call = "clientVersion"
	CallAuthenticate       Call = "authenticate"
	CallSendRequestXML     Call = "sendRequestXML"
	CallReceiveResponseXML Call = "receiveResponseXML"
	CallGetLastError       Call = "getLastError"
	CallCloseConnection    Call = "closeConnection"
)

// publicCalls are reachable without a validated session.
var publicCalls = map[Call]bool{
	CallServerVersion: true,
	CallClientVersion: true,
	CallAuthenticate:  true,
}

// Public reports whether the call skips session validation.
func (c Call) Public() bool {
	return publicCalls[c]
}

// AuthCodeInvalidUser is returned from authenticate when the credentials
// are rejected; the Web Connector stops the update on seeing it.
const AuthCodeInvalidUser = "nvu"
