package leads

// Status is the top-level result of a submission.
type Status string

const (
	StatusAccepted    Status = "accepted"
	StatusDuplicate   Status = "duplicate"
	StatusRateLimited Status = "rate_limited"
	StatusRejected    Status = "rejected"
	StatusServerError Status = "server_error"
)

// RejectReason narrows a StatusRejected outcome.
type RejectReason string

const (
	ReasonInvalidName    RejectReason = "invalid_name"
	ReasonInvalidPhone   RejectReason = "invalid_phone"
	ReasonInvalidEmail   RejectReason = "invalid_email"
	ReasonInvalidMessage RejectReason = "invalid_message"
	ReasonInvalidSource  RejectReason = "invalid_source"
	ReasonCaptchaFailed  RejectReason = "captcha_failed"
	ReasonSpamDetected   RejectReason = "spam_detected"
)

// Outcome is the tagged result of Submit. Exactly one status applies;
// Reason is set only for StatusRejected and Lead only for StatusAccepted.
type Outcome struct {
	Status Status
	Reason RejectReason
	Lead   *Lead
}

func rejected(reason RejectReason) Outcome {
	return Outcome{Status: StatusRejected, Reason: reason}
}
