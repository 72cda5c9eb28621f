package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
)

const (
	msgBadContentLength = "Bad Content-Length"
	msgInvalidJSON      = "Invalid JSON"
	msgBodyTooLarge     = "Request body too large"
	msgHoldTooShort     = "Hold duration must be at least 5 seconds"
	msgLabelRequired    = "actionLabel is required"

	minHoldSeconds = 5.0
)

// RequestError is a client mistake that maps straight to an error response.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string { return e.Message }

func badRequest(msg string) *RequestError {
	return &RequestError{Status: http.StatusBadRequest, Message: msg}
}

// SignRequest is the body of POST /api/sign.
type SignRequest struct {
	HoldSeconds float64
	Note        *string
}

// ClickRequest is the body of POST /api/click.
type ClickRequest struct {
	ActionLabel string
	Sticker     *string
	PhotoSrc    *string
}

// readBody reads exactly Content-Length bytes. The header is mandatory.
func readBody(c *gin.Context, limit int64) ([]byte, error) {
	raw := strings.TrimSpace(c.GetHeader("Content-Length"))
	n, err := strconv.ParseInt(raw, 10, 64)
	if raw == "" || err != nil || n < 0 {
		return nil, badRequest(msgBadContentLength)
	}
	if n > limit {
		return nil, &RequestError{Status: http.StatusRequestEntityTooLarge, Message: msgBodyTooLarge}
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(c.Request.Body, body); err != nil {
		return nil, badRequest(msgBadContentLength)
	}
	return body, nil
}

// decodeObject parses a JSON object body. An empty body is an empty object.
// Invalid UTF-8 is rejected rather than stored with replacement characters.
func decodeObject(body []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(body) == 0 {
		return fields, nil
	}
	if !utf8.Valid(body) {
		return nil, badRequest(msgInvalidJSON)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return nil, badRequest(msgInvalidJSON)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, badRequest(msgInvalidJSON)
	}
	return fields, nil
}

// optionalString coerces a scalar field to text. Null and absent are nil.
func optionalString(fields map[string]any, key string) (*string, error) {
	var s string
	switch v := fields[key].(type) {
	case nil:
		return nil, nil
	case string:
		s = v
	case json.Number:
		s = v.String()
	case bool:
		s = strconv.FormatBool(v)
	default:
		return nil, badRequest(key + " must be a string")
	}
	return &s, nil
}

func floatField(fields map[string]any, key string) (float64, error) {
	switch v := fields[key].(type) {
	case nil:
		return 0, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, badRequest(key + " must be a number")
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, badRequest(key + " must be a number")
		}
		return f, nil
	default:
		return 0, badRequest(key + " must be a number")
	}
}

func parseSignRequest(fields map[string]any) (SignRequest, error) {
	hold, err := floatField(fields, "holdSeconds")
	if err != nil {
		return SignRequest{}, err
	}
	note, err := optionalString(fields, "note")
	if err != nil {
		return SignRequest{}, err
	}

	req := SignRequest{HoldSeconds: hold, Note: note}
	if math.IsNaN(hold) || math.IsInf(hold, 0) || hold < minHoldSeconds {
		return SignRequest{}, badRequest(msgHoldTooShort)
	}
	return req, nil
}

func parseClickRequest(fields map[string]any) (ClickRequest, error) {
	label, err := optionalString(fields, "actionLabel")
	if err != nil {
		return ClickRequest{}, err
	}
	if label == nil || strings.TrimSpace(*label) == "" {
		return ClickRequest{}, badRequest(msgLabelRequired)
	}

	sticker, err := optionalString(fields, "sticker")
	if err != nil {
		return ClickRequest{}, err
	}
	photo, err := optionalString(fields, "photoSrc")
	if err != nil {
		return ClickRequest{}, err
	}

	return ClickRequest{
		ActionLabel: strings.TrimSpace(*label),
		Sticker:     sticker,
		PhotoSrc:    photo,
	}, nil
}
