package spacex

import (
	"context"
	"errors"
	"fmt"

	"github.com/pendergraft/launchcache/internal/apperror"
)

// ErrOffline is returned without touching the network when the
// reachability observer reports no connectivity
var ErrOffline = errors.New("no network connection")

var (
	errInvalidJSON = errors.New("response is not valid JSON")
	errMissingDocs = errors.New("response has no docs array")
	errRateLimited = errors.New("outbound rate limit wait failed")
)

// NetworkError is a failed call to the SpaceX API
type NetworkError struct {
	Kind       apperror.Kind
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Kind == apperror.KindServer:
		return fmt.Sprintf("spacex %s: unexpected status %d", e.Endpoint, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("spacex %s: %v", e.Endpoint, e.Err)
	default:
		return fmt.Sprintf("spacex %s: %s", e.Endpoint, e.Kind)
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Classify maps the failure into the repository error taxonomy
func (e *NetworkError) Classify() *apperror.Error {
	switch e.Kind {
	case apperror.KindServer:
		return apperror.ServerError(e.StatusCode)
	case apperror.KindCertificatePinning:
		return apperror.CertificatePinningFailure(e)
	case apperror.KindDataCorrupted:
		return apperror.DataCorrupted(e)
	case apperror.KindNetworkUnavailable:
		return apperror.NetworkUnavailable(e)
	default:
		return apperror.Unknown(e.Error())
	}
}

// transportError classifies an error returned by http.Client.Do
func transportError(endpoint string, err error) *NetworkError {
	kind := apperror.KindNetworkUnavailable
	if errors.Is(err, ErrCertificatePinning) || apperror.IsTrustFailure(err) {
		kind = apperror.KindCertificatePinning
	}
	return &NetworkError{Kind: kind, Endpoint: endpoint, Err: err}
}

func decodeError(endpoint string, err error) *NetworkError {
	return &NetworkError{Kind: apperror.KindDataCorrupted, Endpoint: endpoint, Err: err}
}

// retryable reports whether a failed GET may be attempted again. Only
// connectivity failures qualify; trust, status and decode failures are final
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrOffline) || errors.Is(err, errRateLimited) {
		return false
	}
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		return false
	}
	return netErr.Kind == apperror.KindNetworkUnavailable
}
