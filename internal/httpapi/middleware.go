package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

const httprateWindow = time.Minute

// Authenticator decides whether a request carries valid credentials. The
// zero value (nil) is treated as "always authenticated" — this service
// issues no tokens itself (see authctx.go); callers wire a real
// implementation in front of it when one is needed.
type Authenticator func(r *http.Request) bool

// authMiddleware stamps the request context with the boolean authenticated
// flag every handler can read via IsAuthenticated, without itself deciding
// what to do when it is false — that policy belongs to whichever handler
// cares.
func authMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authenticated := true
			if auth != nil {
				authenticated = auth(r)
			}
			ctx := WithAuthenticated(r.Context(), authenticated)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// rateLimit returns a sliding-window rate limiter keyed by client IP,
// rejecting with 429 once a caller exceeds requestsPerMin requests in a
// one-minute window. requestsPerMin <= 0 disables the limiter.
func rateLimit(requestsPerMin int) func(http.Handler) http.Handler {
	if requestsPerMin <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		requestsPerMin,
		httprateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, r, http.StatusTooManyRequests, errorResponse{
				Code:    "rate_limit_exceeded",
				Message: "too many requests",
			})
		}),
	)
}
