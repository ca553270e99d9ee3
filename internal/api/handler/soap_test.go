package handler

import (
	"strings"
	"testing"

	"github.com/timmy/qbexport/internal/soap"
)

const soapEnvelopeTpl = `<?xml version="1.0" encoding="utf-8"?>` +
	`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">` +
	`<soap:Body>%s</soap:Body></soap:Envelope>`

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
		want soap.Request
	}{
		{
			name: "serverVersion",
			body: `<serverVersion xmlns="http://developer.intuit.com/"></serverVersion>`,
			want: soap.Request{Call: soap.CallServerVersion},
		},
		{
			name: "clientVersion",
			body: `<clientVersion xmlns="http://developer.intuit.com/"><strVersion>2.3.0.30</strVersion></clientVersion>`,
			want: soap.Request{Call: soap.CallClientVersion, Version: "2.3.0.30"},
		},
		{
			name: "authenticate",
			body: `<authenticate xmlns="http://developer.intuit.com/"><strUserName>qbwc</strUserName><strPassword>secret</strPassword></authenticate>`,
			want: soap.Request{Call: soap.CallAuthenticate, Username: "qbwc", Password: "secret"},
		},
		{
			name: "sendRequestXML",
			body: `<sendRequestXML xmlns="http://developer.intuit.com/"><ticket>abc</ticket><strHCPResponse></strHCPResponse><strCompanyFileName>company.qbw</strCompanyFileName></sendRequestXML>`,
			want: soap.Request{Call: soap.CallSendRequestXML, Ticket: "abc"},
		},
		{
			name: "receiveResponseXML",
			body: `<receiveResponseXML xmlns="http://developer.intuit.com/"><ticket>abc</ticket><response>&lt;CustomerRet&gt;&lt;ListID&gt;1-2&lt;/ListID&gt;&lt;/CustomerRet&gt;</response><hresult></hresult><message></message></receiveResponseXML>`,
			want: soap.Request{Call: soap.CallReceiveResponseXML, Ticket: "abc", Response: "<CustomerRet><ListID>1-2</ListID></CustomerRet>"},
		},
		{
			name: "getLastError",
			body: `<getLastError xmlns="http://developer.intuit.com/"><ticket>abc</ticket></getLastError>`,
			want: soap.Request{Call: soap.CallGetLastError, Ticket: "abc"},
		},
		{
			name: "closeConnection",
			body: `<closeConnection xmlns="http://developer.intuit.com/"><ticket>abc</ticket></closeConnection>`,
			want: soap.Request{Call: soap.CallCloseConnection, Ticket: "abc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envelope := strings.Replace(soapEnvelopeTpl, "%s", tt.body, 1)
			got, err := decodeRequest([]byte(envelope))
			if err != nil {
				t.Fatalf("decodeRequest() error: %v", err)
			}
			if *got != tt.want {
				t.Errorf("decodeRequest() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestDecodeRequestRejectsUnknownOperation(t *testing.T) {
	envelope := strings.Replace(soapEnvelopeTpl, "%s", `<somethingElse></somethingElse>`, 1)
	if _, err := decodeRequest([]byte(envelope)); err == nil {
		t.Error("decodeRequest() accepted an unknown operation")
	}
}

func TestDecodeRequestRejectsGarbage(t *testing.T) {
	if _, err := decodeRequest([]byte("not xml at all <<<")); err == nil {
		t.Error("decodeRequest() accepted garbage")
	}
}

func TestEncodeResponseServerVersion(t *testing.T) {
	version := "1.0"
	out, err := encodeResponse(soap.CallServerVersion, &soap.Result{ServerVersion: &version})
	if err != nil {
		t.Fatalf("encodeResponse() error: %v", err)
	}

	s := string(out)
	if !strings.Contains(s, `<serverVersionResponse xmlns="http://developer.intuit.com/">`) {
		t.Errorf("missing namespaced response element: %s", s)
	}
	if !strings.Contains(s, `<serverVersionResult>1.0</serverVersionResult>`) {
		t.Errorf("missing result element: %s", s)
	}
	if !strings.Contains(s, `soap:Envelope`) || !strings.Contains(s, "http://schemas.xmlsoap.org/soap/envelope/") {
		t.Errorf("missing SOAP envelope: %s", s)
	}
}

func TestEncodeResponseAuthenticate(t *testing.T) {
	out, err := encodeResponse(soap.CallAuthenticate, &soap.Result{Authenticate: []string{"ticket-1", ""}})
	if err != nil {
		t.Fatalf("encodeResponse() error: %v", err)
	}

	s := string(out)
	if !strings.Contains(s, `<authenticateResult><string>ticket-1</string><string></string></authenticateResult>`) {
		t.Errorf("unexpected authenticate result: %s", s)
	}
}

func TestEncodeResponseEscapesPayload(t *testing.T) {
	payload := `<?xml version="1.0"?><QBXML></QBXML>`
	out, err := encodeResponse(soap.CallSendRequestXML, &soap.Result{SendRequestXML: &payload})
	if err != nil {
		t.Fatalf("encodeResponse() error: %v", err)
	}

	s := string(out)
	if !strings.Contains(s, "&lt;QBXML&gt;") {
		t.Errorf("qbXML payload was not escaped inside the result: %s", s)
	}
}

func TestEncodeResponseEmptyGatedResult(t *testing.T) {
	out, err := encodeResponse(soap.CallReceiveResponseXML, &soap.Result{})
	if err != nil {
		t.Fatalf("encodeResponse() error: %v", err)
	}
	if !strings.Contains(string(out), `<receiveResponseXMLResult></receiveResponseXMLResult>`) {
		t.Errorf("gated result should render empty: %s", out)
	}
}
