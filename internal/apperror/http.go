package apperror

import (
	"encoding/json"
	"net/http"
)

// Body is the error object served by the HTTP API
type Body struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Icon    string `json:"icon"`
	Color   string `json:"color"`
}

// Envelope wraps Body as {"error": {...}}
type Envelope struct {
	Error Body `json:"error"`
}

// Request-level codes that sit outside the repository taxonomy
const (
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeNotFound          = "NOT_FOUND"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeBodyTooLarge      = "BODY_TOO_LARGE"
)

// BodyFor renders a classified error for clients
func BodyFor(err error) Body {
	e := From(err)
	if e == nil {
		e = Unknown("")
	}
	return Body{
		Code:    e.Kind.String(),
		Message: e.UserMessage(),
		Icon:    e.Icon(),
		Color:   e.Color(),
	}
}

// InvalidRequest is the body for a rejected parameter or payload
func InvalidRequest(message string) Body {
	return Body{Code: CodeInvalidRequest, Message: message, Icon: "exclamationmark.circle", Color: "yellow"}
}

// NotFound is the body for a missing resource
func NotFound(message string) Body {
	return Body{Code: CodeNotFound, Message: message, Icon: "magnifyingglass", Color: "gray"}
}

// WriteHTTP classifies err and writes it with the matching status
func WriteHTTP(w http.ResponseWriter, err error) {
	WriteBody(w, HTTPStatus(err), BodyFor(err))
}

// WriteBody writes an error envelope
func WriteBody(w http.ResponseWriter, status int, body Body) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Error: body})
}
