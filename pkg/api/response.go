package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/notifyhub/pkg/dispatch"
)

// DispatchResponse is the body returned by POST /dispatch. It is always a
// structured summary, even under partial failure; only input and storage
// errors produce a top-level error instead.
type DispatchResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Results []DeliveryResult `json:"results"`
	Summary SummaryCounts    `json:"summary"`
}

// DeliveryResult is the per-integration slice of a dispatch response.
type DeliveryResult struct {
	Integration string `json:"integration"`
	Success     bool   `json:"success"`
	Attempts    int    `json:"attempts"`
	Response    string `json:"response,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SummaryCounts carries the dispatch totals.
type SummaryCounts struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// newDispatchResponse maps a dispatch summary onto the wire shape.
func newDispatchResponse(summary dispatch.Summary) DispatchResponse {
	results := make([]DeliveryResult, 0, len(summary.Outcomes))
	for _, o := range summary.Outcomes {
		results = append(results, DeliveryResult{
			Integration: o.Integration,
			Success:     o.Success,
			Attempts:    o.AttemptCount(),
			Response:    o.Response,
			Error:       o.LastError,
		})
	}

	message := fmt.Sprintf("delivered to %d of %d integrations", summary.Successful, summary.Total)
	if summary.Total == 0 {
		message = "no integrations matched the event"
	}

	return DispatchResponse{
		Success: summary.Failed == 0,
		Message: message,
		Results: results,
		Summary: SummaryCounts{
			Total:      summary.Total,
			Successful: summary.Successful,
			Failed:     summary.Failed,
		},
	}
}

// errorResponse is the wire shape for boundary failures.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Success: false, Error: err.Error()})
}
