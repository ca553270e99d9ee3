package qbxml

import "fmt"

// qbXML protocol constants the Web Connector requests are pinned to.
const (
	Version = "13.0"
	OnError = "stopOnError"
)

// Envelope wraps a rendered request body in the qbXML processing
// instructions and message-set element QuickBooks expects. The byte layout
// matters: the desktop client rejects envelopes with extra whitespace
// between the processing instructions.
func Envelope(body string) string {
	return fmt.Sprintf(
		`<?xml version="1.0" encoding="utf-8"?><?qbxml version="%s"?><QBXML><QBXMLMsgsRq onError="%s">%s</QBXMLMsgsRq></QBXML>`,
		Version, OnError, body)
}
