// Package apperror defines the closed error taxonomy returned by the repositories.
package apperror

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind identifies one member of the taxonomy
type Kind int

const (
	KindUnknown Kind = iota
	KindNetworkUnavailable
	KindCertificatePinning
	KindServer
	KindDataCorrupted
)

// String returns the stable code used on the wire
func (k Kind) String() string {
	switch k {
	case KindNetworkUnavailable:
		return "NETWORK_UNAVAILABLE"
	case KindCertificatePinning:
		return "CERTIFICATE_PINNING_FAILURE"
	case KindServer:
		return "SERVER_ERROR"
	case KindDataCorrupted:
		return "DATA_CORRUPTED"
	default:
		return "UNKNOWN"
	}
}

// Error is a classified repository failure
type Error struct {
	Kind    Kind
	Code    int    // HTTP status for KindServer
	Message string // diagnostic text for KindUnknown
	Err     error
}

// Sentinels for errors.Is comparisons
var (
	ErrNetworkUnavailable        = &Error{Kind: KindNetworkUnavailable}
	ErrCertificatePinningFailure = &Error{Kind: KindCertificatePinning}
	ErrDataCorrupted             = &Error{Kind: KindDataCorrupted}
)

// NetworkUnavailable wraps err as a connectivity failure
func NetworkUnavailable(err error) *Error {
	return &Error{Kind: KindNetworkUnavailable, Err: err}
}

// CertificatePinningFailure wraps err as a trust failure
func CertificatePinningFailure(err error) *Error {
	return &Error{Kind: KindCertificatePinning, Err: err}
}

// ServerError records a non-2xx response
func ServerError(code int) *Error {
	return &Error{Kind: KindServer, Code: code}
}

// DataCorrupted wraps a decoding failure
func DataCorrupted(err error) *Error {
	return &Error{Kind: KindDataCorrupted, Err: err}
}

// Unknown keeps the original description for diagnostics
func Unknown(message string) *Error {
	return &Error{Kind: KindUnknown, Message: message}
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServer:
		return fmt.Sprintf("server error: status %d", e.Code)
	case KindUnknown:
		if e.Message != "" {
			return "unknown error: " + e.Message
		}
		return "unknown error"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.kindText(), e.Err)
	}
	return e.kindText()
}

func (e *Error) kindText() string {
	switch e.Kind {
	case KindNetworkUnavailable:
		return "network unavailable"
	case KindCertificatePinning:
		return "certificate pinning failure"
	case KindDataCorrupted:
		return "data corrupted"
	}
	return "unknown error"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind. A server error target with a code also matches the code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	if t.Kind == KindServer && t.Code != 0 {
		return t.Code == e.Code
	}
	return true
}

// UserMessage is the short text shown to end users
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindCertificatePinning:
		return "Unable to establish a secure connection. Please check your network settings."
	case KindNetworkUnavailable:
		return "Network connection failed. Please check your internet connection."
	case KindServer:
		return fmt.Sprintf("Server error (Code: %d)", e.Code)
	case KindDataCorrupted:
		return "Unable to process server response"
	default:
		if e.Message != "" {
			return e.Message
		}
		return "An unexpected error occurred"
	}
}

// Icon is the symbol name clients render next to the message
func (e *Error) Icon() string {
	switch e.Kind {
	case KindCertificatePinning:
		return "lock.trianglebadge.exclamationmark"
	case KindNetworkUnavailable:
		return "wifi.exclamationmark"
	case KindServer:
		return "server.rack"
	case KindDataCorrupted:
		return "exclamationmark.triangle"
	default:
		return "questionmark.circle"
	}
}

// Color is the severity hint paired with Icon
func (e *Error) Color() string {
	switch e.Kind {
	case KindCertificatePinning, KindServer:
		return "red"
	case KindNetworkUnavailable:
		return "orange"
	case KindDataCorrupted:
		return "yellow"
	default:
		return "gray"
	}
}

// Classifier is implemented by transport errors that already know their kind
type Classifier interface {
	Classify() *Error
}

// From maps any error into the taxonomy. It returns nil for a nil error
func From(err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var c Classifier
	if errors.As(err, &c) {
		return c.Classify()
	}

	if IsTrustFailure(err) {
		return CertificatePinningFailure(err)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NetworkUnavailable(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return NetworkUnavailable(err)
	}

	return Unknown(err.Error())
}

// IsTrustFailure reports whether err comes from TLS certificate verification
func IsTrustFailure(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	if errors.As(err, &verifyErr) {
		return true
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return true
	}
	var invalidErr x509.CertificateInvalidError
	return errors.As(err, &invalidErr)
}

// IsCertificatePinningFailure reports whether err classifies as a trust failure
func IsCertificatePinningFailure(err error) bool {
	e := From(err)
	return e != nil && e.Kind == KindCertificatePinning
}

// HTTPStatus maps an error to the status served by the HTTP API
func HTTPStatus(err error) int {
	e := From(err)
	if e == nil {
		return http.StatusOK
	}
	switch e.Kind {
	case KindNetworkUnavailable:
		return http.StatusServiceUnavailable
	case KindCertificatePinning, KindServer, KindDataCorrupted:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
