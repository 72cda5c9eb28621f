package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"valentine/models"
)

const jsonContentType = "application/json; charset=utf-8"

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type lastResponse struct {
	OK   bool              `json:"ok"`
	Last *models.Signature `json:"last"`
}

type signResponse struct {
	OK         bool              `json:"ok"`
	DocumentID uint              `json:"documentId"`
	Document   *models.Signature `json:"document"`
}

type clickResponse struct {
	OK      bool `json:"ok"`
	ClickID uint `json:"clickId"`
}

// writeJSON sends payload with an explicit Content-Length. Non-ASCII text is
// written as UTF-8, not escaped.
func writeJSON(c *gin.Context, status int, payload any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	body := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	c.Header("Content-Length", strconv.Itoa(len(body)))
	c.Data(status, jsonContentType, body)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{OK: false, Error: msg})
}
