// Package security provides request hardening middleware.
package security

import (
	"net/http"

	"github.com/pendergraft/launchcache/internal/apperror"
)

// TooLargeBody is the error body for an oversized request
var TooLargeBody = apperror.Body{
	Code:    apperror.CodeBodyTooLarge,
	Message: "Request body too large",
	Icon:    "doc.badge.ellipsis",
	Color:   "yellow",
}

// MaxBodySize limits request bodies to maxKB kilobytes. Requests that
// declare a larger Content-Length are rejected up front; others are capped
// with http.MaxBytesReader so handlers see *http.MaxBytesError on overrun
func MaxBodySize(maxKB int) func(http.Handler) http.Handler {
	limit := int64(maxKB) * 1024

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				apperror.WriteBody(w, http.StatusRequestEntityTooLarge, TooLargeBody)
				return
			}
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
