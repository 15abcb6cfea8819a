package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/mmsearch-dev/mmsearch/internal/apierr"
	"github.com/mmsearch-dev/mmsearch/internal/log"
)

// errorResponse is the JSON body for every non-2xx response.
type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).Error().Err(err).Msg("failed to encode response body")
	}
}

// respondError classifies err via the shared apierr taxonomy and writes the
// matching status code and a structured JSON error body.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := apierr.FromLegacyMessage(err)
	status := apierr.HTTPStatus(apiErr.Kind)
	writeJSON(w, r, status, errorResponse{
		Code:      string(apiErr.Kind),
		Message:   apiErr.Message,
		RequestID: log.RequestIDFromContext(r.Context()),
	})
}
