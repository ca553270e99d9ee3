// Package qbxml renders qbXML requests and picks values out of qbXML
// replies. Replies from the desktop client are frequently not well formed,
// so extraction deliberately scans for substrings instead of parsing.
package qbxml

import (
	"strings"

	"github.com/timmy/qbexport/internal/domain"
)

// Status codes QuickBooks returns that the export loop gives meaning to.
const (
	// StatusCodeRetry means the company file could not accept the request
	// right now; the same row is re-sent on the next round trip.
	StatusCodeRetry = "3180"

	// StatusCodeAlreadyExists means the record is already in the company
	// file, which the export treats as success.
	StatusCodeAlreadyExists = "3100"

	StatusCodeInvalidReference  = "3000"
	StatusCodeReferenceNotFound = "3140"
	StatusCodeNameInUse         = "3120"
)

// identifierElements are the reply elements worth capturing, scanned in
// this order. Only the first occurrence of each is taken.
var identifierElements = []string{
	"ListID",
	"TxnID",
	"OwnerID",
	"TxnLineID",
	"EditSequence",
	"FullName",
	"Name",
	"RefNumber",
}

// identifierAttributes are the reply attributes worth capturing.
var identifierAttributes = []string{
	"requestID",
	"iteratorID",
	"iteratorRemainingCount",
	"metaData",
	"retCount",
	"statusCode",
	"statusSeverity",
	"statusMessage",
	"newMessageSetID",
	"messageSetStatusCode",
}

// Scan collects the first occurrence of every known element and attribute
// from a reply. Missing names are simply absent from the result.
func Scan(reply string) map[string]string {
	found := make(map[string]string)
	for _, tag := range identifierElements {
		if v, ok := scanElement(reply, tag); ok {
			found[tag] = v
		}
	}
	for _, name := range identifierAttributes {
		if v, ok := scanAttribute(reply, name); ok {
			found[name] = v
		}
	}
	return found
}

// ExtractIdentifier pulls the QuickBooks identifier for a row of the given
// kind out of a reply: ListID for list entities, TxnID for transactions.
// Returns "" when the reply carries none.
func ExtractIdentifier(reply string, kind domain.EntityKind) string {
	v, _ := scanElement(reply, identifierElement(kind))
	return v
}

// identifierElement maps an entity kind to the reply element that carries
// its identifier.
func identifierElement(kind domain.EntityKind) string {
	switch kind {
	case domain.EntityKindCustomer,
		domain.EntityKindProduct,
		domain.EntityKindProductVariation,
		domain.EntityKindPayment:
		return "ListID"
	default:
		return "TxnID"
	}
}

// ExtractStatusCode returns the first statusCode attribute value in the
// reply, or "" when absent.
func ExtractStatusCode(reply string) string {
	v, _ := scanAttribute(reply, "statusCode")
	return v
}

// ExtractStatusMessage returns the first statusMessage attribute value in
// the reply, or "" when absent.
func ExtractStatusMessage(reply string) string {
	v, _ := scanAttribute(reply, "statusMessage")
	return v
}

// IsQuickBooksIdentifier reports whether an identifier came from
// QuickBooks rather than being generated locally. QuickBooks identifiers
// look like "80000001-1431947192"; locally generated UUIDs carry more
// separators.
func IsQuickBooksIdentifier(id string) bool {
	return strings.Count(id, "-") < 2
}

// scanElement finds the text between the first <tag> and the following
// </tag>. The boolean is false when either marker is missing.
func scanElement(s, tag string) (string, bool) {
	open := "<" + tag + ">"
	i := strings.Index(s, open)
	if i < 0 {
		return "", false
	}
	rest := s[i+len(open):]
	j := strings.Index(rest, "</"+tag+">")
	if j < 0 {
		return "", false
	}
	return rest[:j], true
}

// scanAttribute finds the value of the first name="..." occurrence. The
// boolean is false when the attribute or its closing quote is missing.
func scanAttribute(s, name string) (string, bool) {
	marker := name + `="`
	i := strings.Index(s, marker)
	if i < 0 {
		return "", false
	}
	rest := s[i+len(marker):]
	j := strings.Index(rest, `"`)
	if j < 0 {
		return "", false
	}
	return rest[:j], true
}
