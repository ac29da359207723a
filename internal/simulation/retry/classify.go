package retry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// StatusOverloaded is the HTTP-like code some vendors use for capacity errors.
const StatusOverloaded = 529

// ErrorKind is the classified category of a failed attempt.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindRateLimited
	KindOverloaded
	KindServer
	KindNetwork
	KindClient
	KindAuth
	KindParse
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindOverloaded:
		return "overloaded"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	case KindClient:
		return "client"
	case KindAuth:
		return "auth"
	case KindParse:
		return "parse"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Retryable reports whether errors of this kind are transient.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindRateLimited, KindOverloaded, KindServer, KindNetwork:
		return true
	}
	return false
}

// IsRetryable decides whether a failed attempt should be retried.
func IsRetryable(err error) bool {
	return Classify(err).Retryable()
}

// Classify determines the kind of a failed attempt.
//
// Rules, first match wins:
//   - caller cancellation
//   - remote status: 429, overloaded, 5xx, then auth and other 4xx
//   - response parse failures (never retried, the prompt would not change)
//   - network failures: reset, refused, timeouts
//   - message heuristics for rate limit, overload, server and network text
//   - anything else is not retryable
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, ErrDeadlineTooClose) {
		return KindCanceled
	}

	if code, vendor, ok := remoteStatus(err); ok {
		if kind := classifyStatus(code, vendor); kind != KindUnknown {
			return kind
		}
	}

	var parseErr *ResponseParseError
	if errors.As(err, &parseErr) {
		return KindParse
	}

	if isNetworkError(err) {
		return KindNetwork
	}

	return classifyMessage(err.Error())
}

func classifyStatus(code int, vendor string) ErrorKind {
	vendor = strings.ToLower(vendor)
	switch {
	case code == http.StatusTooManyRequests || strings.Contains(vendor, "rate_limit"):
		return KindRateLimited
	case code == StatusOverloaded || strings.Contains(vendor, "overloaded"):
		return KindOverloaded
	case code >= 500 && code <= 599:
		return KindServer
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindAuth
	case code >= 400 && code <= 499:
		return KindClient
	}
	return KindUnknown
}

// remoteStatus extracts an HTTP-like status from the error types adapters
// surface: StatusError, Google API REST errors and gRPC statuses.
func remoteStatus(err error) (int, string, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code, se.Status, true
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code, gerr.Message, true
	}

	if st, ok := status.FromError(err); ok {
		code, vendor := grpcToHTTP(st.Code())
		if code == 0 {
			return 0, "", false
		}
		return code, vendor, true
	}

	return 0, "", false
}

func grpcToHTTP(c codes.Code) (int, string) {
	switch c {
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests, ""
	case codes.Unavailable:
		return http.StatusServiceUnavailable, "overloaded"
	case codes.Internal, codes.Unknown, codes.DataLoss, codes.Aborted:
		return http.StatusInternalServerError, ""
	case codes.Unauthenticated:
		return http.StatusUnauthorized, ""
	case codes.PermissionDenied:
		return http.StatusForbidden, ""
	case codes.InvalidArgument, codes.NotFound, codes.FailedPrecondition,
		codes.OutOfRange, codes.Unimplemented, codes.AlreadyExists:
		return http.StatusBadRequest, ""
	}
	// DeadlineExceeded and Canceled fall through to the network/cancel rules.
	return 0, ""
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}
	if st, ok := status.FromError(err); ok && st.Code() == codes.DeadlineExceeded {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

func classifyMessage(s string) ErrorKind {
	sLower := strings.ToLower(s)

	if strings.Contains(sLower, "429") || strings.Contains(sLower, "too many requests") ||
		strings.Contains(sLower, "rate limit") {
		return KindRateLimited
	}
	if strings.Contains(sLower, "overloaded") {
		return KindOverloaded
	}
	if strings.Contains(sLower, "internal server error") ||
		strings.Contains(sLower, "service unavailable") ||
		strings.Contains(sLower, "bad gateway") {
		return KindServer
	}
	if strings.Contains(sLower, "timeout") || strings.Contains(sLower, "network") ||
		strings.Contains(sLower, "connection") {
		return KindNetwork
	}
	return KindUnknown
}

// RetryHint returns the server suggested wait before the next attempt, or 0.
func RetryHint(err error) time.Duration {
	var se *StatusError
	if errors.As(err, &se) && se.RetryAfter > 0 {
		return se.RetryAfter
	}
	st, ok := status.FromError(err)
	if !ok {
		return 0
	}
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.RetryInfo); ok && info.GetRetryDelay() != nil {
			return info.GetRetryDelay().AsDuration()
		}
	}
	return 0
}
