package handler

import (
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timmy/qbexport/internal/logger"
	"github.com/timmy/qbexport/internal/soap"
)

// SoapHandler terminates the Web Connector's SOAP 1.1 transport and hands
// decoded calls to the protocol service.
type SoapHandler struct {
	svc *soap.Service
}

// NewSoapHandler creates a new SoapHandler.
func NewSoapHandler(svc *soap.Service) *SoapHandler {
	return &SoapHandler{svc: svc}
}

// Handle processes one SOAP request. Transport-level problems get an HTTP
// error; protocol-level problems are answered inside a 200 response, which
// is the only thing the desktop client understands.
func (h *SoapHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "unreadable body")
		return
	}

	req, err := decodeRequest(body)
	if err != nil {
		logger.CtxWarn(c.Request.Context(), "SOAP decode failed: %v", err)
		c.String(http.StatusBadRequest, "malformed SOAP request")
		return
	}

	res := h.svc.Dispatch(c.Request.Context(), req)

	out, err := encodeResponse(req.Call, res)
	if err != nil {
		logger.CtxError(c.Request.Context(), "SOAP encode failed: %v", err)
		c.String(http.StatusInternalServerError, "response encoding failed")
		return
	}
	c.Data(http.StatusOK, "text/xml; charset=utf-8", out)
}

type requestEnvelope struct {
	XMLName xml.Name    `xml:"Envelope"`
	Body    requestBody `xml:"Body"`
}

type requestBody struct {
	ServerVersion      *serverVersionRequest      `xml:"serverVersion"`
	ClientVersion      *clientVersionRequest      `xml:"clientVersion"`
	Authenticate       *authenticateRequest       `xml:"authenticate"`
	SendRequestXML     *sendRequestXMLRequest     `xml:"sendRequestXML"`
	ReceiveResponseXML *receiveResponseXMLRequest `xml:"receiveResponseXML"`
	GetLastError       *ticketedRequest           `xml:"getLastError"`
	CloseConnection    *ticketedRequest           `xml:"closeConnection"`
}

type serverVersionRequest struct{}

type clientVersionRequest struct {
	Version string `xml:"strVersion"`
}

type authenticateRequest struct {
	Username string `xml:"strUserName"`
	Password string `xml:"strPassword"`
}

type sendRequestXMLRequest struct {
	Ticket          string `xml:"ticket"`
	HCPResponse     string `xml:"strHCPResponse"`
	CompanyFileName string `xml:"strCompanyFileName"`
}

type receiveResponseXMLRequest struct {
	Ticket   string `xml:"ticket"`
	Response string `xml:"response"`
	HResult  string `xml:"hresult"`
	Message  string `xml:"message"`
}

type ticketedRequest struct {
	Ticket string `xml:"ticket"`
}

// decodeRequest parses a SOAP envelope into a protocol request. Exactly
// one operation element is expected in the body.
func decodeRequest(body []byte) (*soap.Request, error) {
	var env requestEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, err
	}

	b := env.Body
	switch {
	case b.ServerVersion != nil:
		return &soap.Request{Call: soap.CallServerVersion}, nil
	case b.ClientVersion != nil:
		return &soap.Request{Call: soap.CallClientVersion, Version: b.ClientVersion.Version}, nil
	case b.Authenticate != nil:
		return &soap.Request{
			Call:     soap.CallAuthenticate,
			Username: b.Authenticate.Username,
			Password: b.Authenticate.Password,
		}, nil
	case b.SendRequestXML != nil:
		return &soap.Request{Call: soap.CallSendRequestXML, Ticket: b.SendRequestXML.Ticket}, nil
	case b.ReceiveResponseXML != nil:
		return &soap.Request{
			Call:     soap.CallReceiveResponseXML,
			Ticket:   b.ReceiveResponseXML.Ticket,
			Response: b.ReceiveResponseXML.Response,
		}, nil
	case b.GetLastError != nil:
		return &soap.Request{Call: soap.CallGetLastError, Ticket: b.GetLastError.Ticket}, nil
	case b.CloseConnection != nil:
		return &soap.Request{Call: soap.CallCloseConnection, Ticket: b.CloseConnection.Ticket}, nil
	}
	return nil, errors.New("no recognized operation in SOAP body")
}

type responseEnvelope struct {
	XMLName xml.Name     `xml:"soap:Envelope"`
	SoapNS  string       `xml:"xmlns:soap,attr"`
	Body    responseBody `xml:"soap:Body"`
}

type responseBody struct {
	Payload interface{}
}

type serverVersionResponse struct {
	XMLName xml.Name `xml:"http://developer.intuit.com/ serverVersionResponse"`
	Result  string   `xml:"serverVersionResult"`
}

type clientVersionResponse struct {
	XMLName xml.Name `xml:"http://developer.intuit.com/ clientVersionResponse"`
	Result  string   `xml:"clientVersionResult"`
}

type authenticateResponse struct {
	XMLName xml.Name `xml:"http://developer.intuit.com/ authenticateResponse"`
	Result  []string `xml:"authenticateResult>string"`
}

type sendRequestXMLResponse struct {
	XMLName xml.Name `xml:"http://developer.intuit.com/ sendRequestXMLResponse"`
	Result  string   `xml:"sendRequestXMLResult"`
}

type receiveResponseXMLResponse struct {
	XMLName xml.Name `xml:"http://developer.intuit.com/ receiveResponseXMLResponse"`
	Result  string   `xml:"receiveResponseXMLResult"`
}

type getLastErrorResponse struct {
	XMLName xml.Name `xml:"http://developer.intuit.com/ getLastErrorResponse"`
	Result  string   `xml:"getLastErrorResult"`
}

type closeConnectionResponse struct {
	XMLName xml.Name `xml:"http://developer.intuit.com/ closeConnectionResponse"`
	Result  string   `xml:"closeConnectionResult"`
}

// encodeResponse wraps a dispatch result in a SOAP envelope. Nil result
// fields render as empty result elements, never as faults.
func encodeResponse(call soap.Call, res *soap.Result) ([]byte, error) {
	var payload interface{}
	switch call {
	case soap.CallServerVersion:
		payload = serverVersionResponse{Result: deref(res.ServerVersion)}
	case soap.CallClientVersion:
		payload = clientVersionResponse{Result: deref(res.ClientVersion)}
	case soap.CallAuthenticate:
		payload = authenticateResponse{Result: res.Authenticate}
	case soap.CallSendRequestXML:
		payload = sendRequestXMLResponse{Result: deref(res.SendRequestXML)}
	case soap.CallReceiveResponseXML:
		out := ""
		if res.ReceiveResponseXML != nil {
			out = strconv.Itoa(*res.ReceiveResponseXML)
		}
		payload = receiveResponseXMLResponse{Result: out}
	case soap.CallGetLastError:
		payload = getLastErrorResponse{Result: deref(res.GetLastError)}
	case soap.CallCloseConnection:
		payload = closeConnectionResponse{Result: deref(res.CloseConnection)}
	default:
		return nil, errors.New("unknown call " + string(call))
	}

	env := responseEnvelope{
		SoapNS: "http://schemas.xmlsoap.org/soap/envelope/",
		Body:   responseBody{Payload: payload},
	}
	out, err := xml.Marshal(env)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
