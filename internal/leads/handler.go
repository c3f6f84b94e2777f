package leads

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/park63/lead-intake/internal/observability/metrics"
	"github.com/park63/lead-intake/pkg/logging"
)

// Handler exposes the intake pipeline over HTTP.
type Handler struct {
	service *Service
	metrics *metrics.IntakeMetrics
	logger  *logging.Logger
}

// NewHandler creates the submission handler. metrics may be nil.
func NewHandler(service *Service, m *metrics.IntakeMetrics, logger *logging.Logger) *Handler {
	if service == nil {
		panic("leads: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, metrics: m, logger: logger}
}

// SubmitResponse is the wire shape returned for every outcome. Rejection
// messages stay generic; validation detail is for logs, not for bots.
type SubmitResponse struct {
	Success     bool   `json:"success"`
	Duplicate   bool   `json:"duplicate,omitempty"`
	RateLimited bool   `json:"rate_limited,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SubmitLead handles POST /api/submit-lead.
func (h *Handler) SubmitLead(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Info("unreadable submission body", "error", err)
		writeJSON(w, http.StatusBadRequest, SubmitResponse{Error: "invalid request body"})
		return
	}
	req.ClientIP = clientIP(r)

	outcome := h.service.Submit(r.Context(), req)
	h.metrics.ObserveSubmission(string(outcome.Status), metricSource(outcome, req.Source), time.Since(start).Seconds())

	status, body := OutcomeResponse(outcome)
	writeJSON(w, status, body)
}

// metricSource keeps the source label inside the closed enum. The raw
// caller string would let anyone mint unbounded time series on a public
// endpoint, so anything that doesn't parse is folded into one bucket.
func metricSource(outcome Outcome, raw string) string {
	if outcome.Lead != nil {
		return string(outcome.Lead.Source)
	}
	if source, err := ParseSource(strings.TrimSpace(raw)); err == nil {
		return string(source)
	}
	return "invalid"
}

// OutcomeResponse maps a pipeline outcome to the HTTP status and wire body.
// Shared by the HTTP handler and the Lambda adapter.
func OutcomeResponse(outcome Outcome) (int, SubmitResponse) {
	switch outcome.Status {
	case StatusAccepted:
		return http.StatusOK, SubmitResponse{Success: true}
	case StatusDuplicate:
		return http.StatusOK, SubmitResponse{Success: true, Duplicate: true}
	case StatusRateLimited:
		return http.StatusTooManyRequests, SubmitResponse{
			RateLimited: true,
			Error:       "too many requests, please try again later",
		}
	case StatusRejected:
		return http.StatusBadRequest, SubmitResponse{Error: rejectMessage(outcome.Reason)}
	default:
		return http.StatusInternalServerError, SubmitResponse{Error: "something went wrong, please try again"}
	}
}

// rejectMessage maps a reason to the visitor-facing message. Spam and
// CAPTCHA rejections share the validation wording so automated senders
// cannot tell which check caught them.
func rejectMessage(reason RejectReason) string {
	switch reason {
	case ReasonInvalidName:
		return "please provide your name"
	case ReasonInvalidPhone:
		return "please provide a valid 10-digit mobile number"
	case ReasonInvalidEmail:
		return "please provide a valid email address"
	case ReasonInvalidMessage:
		return "message is too long"
	case ReasonInvalidSource:
		return "invalid submission"
	default:
		return "invalid submission"
	}
}

// clientIP trusts middleware.RealIP to have rewritten RemoteAddr from the
// proxy headers before the handler runs.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
