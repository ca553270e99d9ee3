package handler

import (
	"encoding/xml"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/timmy/qbexport/internal/config"
	"github.com/timmy/qbexport/internal/logger"
)

// QWCHandler serves the .qwc descriptor file an operator feeds to the
// Web Connector to register this server.
type QWCHandler struct {
	cfg *config.Config
}

// NewQWCHandler creates a new QWCHandler.
func NewQWCHandler(cfg *config.Config) *QWCHandler {
	return &QWCHandler{cfg: cfg}
}

type qwcFile struct {
	XMLName        xml.Name `xml:"QBWCXML"`
	AppName        string   `xml:"AppName"`
	AppID          string   `xml:"AppID"`
	AppURL         string   `xml:"AppURL"`
	AppDescription string   `xml:"AppDescription"`
	AppSupport     string   `xml:"AppSupport"`
	UserName       string   `xml:"UserName"`
	OwnerID        string   `xml:"OwnerID"`
	FileID         string   `xml:"FileID"`
	QBType         string   `xml:"QBType"`
	Style          string   `xml:"Style"`
}

// Download renders the descriptor as an attachment. Owner and file IDs
// should be pinned in configuration; a missing one gets a random GUID,
// which makes the Web Connector treat every download as a new app.
func (h *QWCHandler) Download(c *gin.Context) {
	qwc := h.cfg.QuickBooks.QWC
	base := strings.TrimRight(h.cfg.Server.BaseURL, "/")

	ownerID := qwc.OwnerID
	if ownerID == "" {
		ownerID = uuid.New().String()
		logger.CtxWarn(c.Request.Context(), "QWC owner ID not configured, using a random one")
	}
	fileID := qwc.FileID
	if fileID == "" {
		fileID = uuid.New().String()
		logger.CtxWarn(c.Request.Context(), "QWC file ID not configured, using a random one")
	}

	file := qwcFile{
		AppName:        qwc.AppName,
		AppURL:         base + "/soap",
		AppDescription: qwc.AppDescription,
		AppSupport:     base + "/support",
		UserName:       qwc.Username,
		OwnerID:        "{" + ownerID + "}",
		FileID:         "{" + fileID + "}",
		QBType:         "QBFS",
		Style:          "Document",
	}

	out, err := xml.MarshalIndent(file, "", "  ")
	if err != nil {
		c.String(http.StatusInternalServerError, "descriptor encoding failed")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="qbexport.qwc"`)
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), out...))
}
