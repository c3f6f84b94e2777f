package leads

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/park63/lead-intake/internal/captcha"
	"github.com/park63/lead-intake/internal/notify"
	"github.com/park63/lead-intake/internal/ratelimit"
	"github.com/park63/lead-intake/pkg/logging"
)

var tracer = otel.Tracer("lead-intake/leads")

// Notifier receives the redacted summary of each accepted lead. Delivery is
// fire-and-forget; the submission outcome never depends on it.
type Notifier interface {
	Enqueue(summary notify.LeadSummary)
}

// UnitCounter decrements the available-units counter. Optional; failures are
// logged and otherwise ignored.
type UnitCounter interface {
	Decrement(ctx context.Context) (int, error)
}

// Service runs the intake pipeline: honeypot, field validation, CAPTCHA,
// rate limiting, duplicate check, insert, notification. Checks are ordered
// cheapest-first so malformed and bot traffic never reaches the limiter or
// the database.
type Service struct {
	repo     Repository
	limiter  ratelimit.Limiter
	verifier captcha.Verifier
	notifier Notifier
	units    UnitCounter
	logger   *logging.Logger
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithNotifier attaches a notification sink for accepted leads.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// WithUnitCounter attaches the available-units counter.
func WithUnitCounter(u UnitCounter) ServiceOption {
	return func(s *Service) { s.units = u }
}

// NewService creates the intake service. Repository, limiter, and verifier
// are required.
func NewService(repo Repository, limiter ratelimit.Limiter, verifier captcha.Verifier, logger *logging.Logger, opts ...ServiceOption) *Service {
	if repo == nil {
		panic("leads: repository required")
	}
	if limiter == nil {
		panic("leads: rate limiter required")
	}
	if verifier == nil {
		panic("leads: captcha verifier required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		repo:     repo,
		limiter:  limiter,
		verifier: verifier,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit runs one submission through the pipeline and reports the outcome.
// Only infrastructure faults surface as StatusServerError; everything a
// visitor can cause maps to a non-error outcome.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) Outcome {
	ctx, span := tracer.Start(ctx, "leads.Submit", trace.WithAttributes(
		attribute.String("lead.source", req.Source),
	))
	defer span.End()

	// Bots fill every field they can see, including the hidden one.
	// Report it as accepted-shaped rejection upstream; log the truth here.
	if strings.TrimSpace(req.HP) != "" {
		s.logger.Info("honeypot tripped", "ip", req.ClientIP)
		span.SetAttributes(attribute.Bool("lead.honeypot", true))
		return rejected(ReasonSpamDetected)
	}

	lead, reason := buildLead(req)
	if reason != "" {
		span.SetAttributes(attribute.String("lead.reject_reason", string(reason)))
		return rejected(reason)
	}

	if err := s.verifier.Verify(ctx, req.CaptchaToken); err != nil {
		s.logger.Info("captcha verification failed", "ip", req.ClientIP)
		span.SetAttributes(attribute.String("lead.reject_reason", string(ReasonCaptchaFailed)))
		return rejected(ReasonCaptchaFailed)
	}

	identifiers := []string{"phone:" + lead.Phone}
	if req.ClientIP != "" {
		identifiers = append(identifiers, "ip:"+req.ClientIP)
	}
	for _, id := range identifiers {
		decision, err := s.limiter.Allow(ctx, id)
		if err != nil {
			// A broken limiter must not take lead capture down.
			s.logger.Error("rate limiter unavailable, allowing", "error", err, "identifier", id)
			continue
		}
		if !decision.Allowed {
			s.logger.Info("submission rate limited",
				"identifier", id, "count", decision.Count, "limit", decision.Limit)
			span.SetAttributes(attribute.String("lead.limited_identifier", id))
			return Outcome{Status: StatusRateLimited}
		}
	}

	if _, err := s.repo.FindByPhone(ctx, lead.Phone); err == nil {
		return Outcome{Status: StatusDuplicate}
	} else if !errors.Is(err, ErrLeadNotFound) {
		s.logger.Error("duplicate lookup failed", "error", err)
		return Outcome{Status: StatusServerError}
	}

	if err := s.repo.Insert(ctx, lead); err != nil {
		// Two concurrent first submissions race past FindByPhone; the
		// unique constraint settles it.
		if errors.Is(err, ErrDuplicatePhone) {
			return Outcome{Status: StatusDuplicate}
		}
		s.logger.Error("lead insert failed", "error", err)
		return Outcome{Status: StatusServerError}
	}

	s.logger.Info("lead accepted", "lead_id", lead.ID, "source", lead.Source)

	if s.notifier != nil {
		s.notifier.Enqueue(notify.LeadSummary{
			Name:      lead.Name,
			Phone:     lead.Phone,
			Source:    string(lead.Source),
			CreatedAt: lead.CreatedAt,
		})
	}
	if s.units != nil {
		if _, err := s.units.Decrement(ctx); err != nil {
			s.logger.Warn("units decrement failed", "error", err)
		}
	}

	return Outcome{Status: StatusAccepted, Lead: lead}
}

// buildLead validates and normalizes the request into a storable Lead.
// The returned reason is empty on success.
func buildLead(req SubmitRequest) (*Lead, RejectReason) {
	name := strings.TrimSpace(req.Name)
	if !validName(name) {
		return nil, ReasonInvalidName
	}

	phone := NormalizePhone(req.Phone)
	if !validPhone(phone) {
		return nil, ReasonInvalidPhone
	}

	email := strings.TrimSpace(req.Email)
	if email != "" && !validEmail(email) {
		return nil, ReasonInvalidEmail
	}

	message := strings.TrimSpace(req.Message)
	if !validMessage(message) {
		return nil, ReasonInvalidMessage
	}

	source, err := ParseSource(strings.TrimSpace(req.Source))
	if err != nil {
		return nil, ReasonInvalidSource
	}

	return &Lead{
		ID:      uuid.NewString(),
		Name:    name,
		Phone:   phone,
		Email:   email,
		Message: message,
		Source:  source,
	}, ""
}
