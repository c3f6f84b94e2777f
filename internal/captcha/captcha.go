// Package captcha abstracts CAPTCHA verification so deployments without a
// provider secret run a pass-through verifier instead of branching on
// configuration at every call site.
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/park63/lead-intake/pkg/logging"
)

// ErrVerificationFailed is returned for a missing, invalid, or rejected
// token. Callers surface it without detail; bots learn nothing from it.
var ErrVerificationFailed = errors.New("captcha: verification failed")

// Verifier checks a client-supplied CAPTCHA token.
type Verifier interface {
	Verify(ctx context.Context, token string) error
}

// NoopVerifier accepts every submission. Used when no secret is configured.
type NoopVerifier struct{}

// Verify always passes.
func (NoopVerifier) Verify(ctx context.Context, token string) error {
	return nil
}

// DefaultVerifyURL is Google's reCAPTCHA siteverify endpoint.
const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// RecaptchaVerifier forwards tokens to the reCAPTCHA siteverify API.
type RecaptchaVerifier struct {
	secret    string
	verifyURL string
	client    *http.Client
	logger    *logging.Logger
}

// NewRecaptchaVerifier creates a verifier for the given secret. verifyURL
// may be empty to use the Google endpoint; tests point it at a local server.
func NewRecaptchaVerifier(secret, verifyURL string, logger *logging.Logger) *RecaptchaVerifier {
	if secret == "" {
		panic("captcha: secret required")
	}
	if verifyURL == "" {
		verifyURL = DefaultVerifyURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RecaptchaVerifier{
		secret:    secret,
		verifyURL: verifyURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
	}
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify posts the token to the provider. A missing token fails outright;
// transport errors also fail, since an unverifiable submission must not be
// treated as verified.
func (v *RecaptchaVerifier) Verify(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrVerificationFailed
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("captcha: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Error("captcha verification request failed", "error", err)
		return ErrVerificationFailed
	}
	defer resp.Body.Close()

	var result siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		v.logger.Error("captcha verification response unreadable", "error", err)
		return ErrVerificationFailed
	}
	if !result.Success {
		v.logger.Info("captcha token rejected", "error_codes", strings.Join(result.ErrorCodes, ","))
		return ErrVerificationFailed
	}
	return nil
}

var (
	_ Verifier = NoopVerifier{}
	_ Verifier = (*RecaptchaVerifier)(nil)
)
