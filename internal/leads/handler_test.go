package leads

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park63/lead-intake/internal/captcha"
	"github.com/park63/lead-intake/internal/observability/metrics"
	"github.com/park63/lead-intake/internal/ratelimit"
	"github.com/park63/lead-intake/pkg/logging"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	svc := NewService(
		NewInMemoryRepository(),
		ratelimit.NewMemoryLimiter(ratelimit.Config{Max: 10, Window: time.Hour}),
		captcha.NoopVerifier{},
		logging.New("error"),
	)
	return NewHandler(svc, nil, logging.New("error"))
}

func TestSubmitLeadHandlerAccepts(t *testing.T) {
	h := newTestHandler(t)

	body := `{"name":"Asha Rao","phone":"9123456789","source":"hero"}`
	req := httptest.NewRequest(http.MethodPost, "/api/submit-lead", strings.NewReader(body))
	req.RemoteAddr = "203.0.113.7:40000"
	rec := httptest.NewRecorder()

	h.SubmitLead(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestSubmitLeadHandlerBadJSON(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/submit-lead", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	h.SubmitLead(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
}

func TestSubmitLeadHandlerRejectionMessage(t *testing.T) {
	h := newTestHandler(t)

	body := `{"name":"Asha Rao","phone":"12345","source":"hero"}`
	req := httptest.NewRequest(http.MethodPost, "/api/submit-lead", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.SubmitLead(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "mobile number")
}

func TestSubmitLeadHandlerSpamLooksLikeValidation(t *testing.T) {
	h := newTestHandler(t)

	// Honeypot rejections must be indistinguishable from field rejections.
	body := `{"name":"Asha Rao","phone":"9123456789","source":"hero","hp":"filled"}`
	req := httptest.NewRequest(http.MethodPost, "/api/submit-lead", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.SubmitLead(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), "spam")
	assert.NotContains(t, rec.Body.String(), "honeypot")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	assert.Equal(t, "203.0.113.7", clientIP(req))

	// RealIP middleware rewrites RemoteAddr without a port.
	req.RemoteAddr = "198.51.100.9"
	assert.Equal(t, "198.51.100.9", clientIP(req))
}

func TestSubmitLeadMetricsSourceLabelBounded(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewIntakeMetrics(reg)
	svc := NewService(
		NewInMemoryRepository(),
		ratelimit.NewMemoryLimiter(ratelimit.Config{Max: 1000, Window: time.Hour}),
		captcha.NoopVerifier{},
		logging.New("error"),
	)
	h := NewHandler(svc, m, logging.New("error"))

	// A bot spraying made-up source tags must not mint one time series
	// per tag.
	for i := 0; i < 50; i++ {
		body := fmt.Sprintf(`{"name":"Asha Rao","phone":"9123456789","source":"junk-%d"}`, i)
		req := httptest.NewRequest(http.MethodPost, "/api/submit-lead", strings.NewReader(body))
		req.RemoteAddr = "203.0.113.7:40000"
		h.SubmitLead(httptest.NewRecorder(), req)
	}

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "park63_intake_submissions_total" {
			continue
		}
		require.Len(t, mf.GetMetric(), 1, "all unknown sources must share one series")
		for _, label := range mf.GetMetric()[0].GetLabel() {
			if label.GetName() == "source" {
				assert.Equal(t, "invalid", label.GetValue())
			}
		}
		return
	}
	t.Fatal("submissions_total metric family not found")
}

func TestMetricSource(t *testing.T) {
	lead := &Lead{Source: SourceHero}
	assert.Equal(t, "hero", metricSource(Outcome{Status: StatusAccepted, Lead: lead}, "hero"))
	assert.Equal(t, "popup", metricSource(Outcome{Status: StatusDuplicate}, "popup"))
	assert.Equal(t, "contact-form", metricSource(Outcome{Status: StatusRejected}, ""))
	assert.Equal(t, "invalid", metricSource(Outcome{Status: StatusRejected}, "junk-tag"))
}

func TestOutcomeResponseMapping(t *testing.T) {
	tests := []struct {
		name       string
		outcome    Outcome
		wantStatus int
	}{
		{"accepted", Outcome{Status: StatusAccepted}, http.StatusOK},
		{"duplicate", Outcome{Status: StatusDuplicate}, http.StatusOK},
		{"rate limited", Outcome{Status: StatusRateLimited}, http.StatusTooManyRequests},
		{"rejected", Outcome{Status: StatusRejected, Reason: ReasonInvalidPhone}, http.StatusBadRequest},
		{"server error", Outcome{Status: StatusServerError}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := OutcomeResponse(tt.outcome)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}
