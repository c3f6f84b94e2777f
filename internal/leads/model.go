package leads

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Lead is a deduplicated record of visitor interest. Phone is the natural
// key: the storage layer enforces at most one row per phone.
type Lead struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Message   string    `json:"message,omitempty"`
	Source    Source    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Source identifies which UI surface produced the lead.
type Source string

const (
	SourceHero        Source = "hero"
	SourceContactForm Source = "contact-form"
	SourcePopup       Source = "popup"
	SourceBrochure    Source = "brochure_download"
)

// ParseSource maps the caller-supplied tag to a Source. An absent tag
// defaults to contact-form; anything outside the closed set is an error.
func ParseSource(raw string) (Source, error) {
	if raw == "" {
		return SourceContactForm, nil
	}
	switch s := Source(raw); s {
	case SourceHero, SourceContactForm, SourcePopup, SourceBrochure:
		return s, nil
	}
	return "", fmt.Errorf("leads: unknown source %q", raw)
}

// SubmitRequest is the untrusted form submission body. HP is a honeypot
// field hidden from human visitors; any value there marks the sender as a
// bot. ClientIP is filled by the transport, never by the caller.
type SubmitRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Message      string `json:"message"`
	Source       string `json:"source"`
	CaptchaToken string `json:"captchaToken"`
	HP           string `json:"hp"`

	ClientIP string `json:"-"`
}

const (
	maxNameLen    = 100
	maxEmailLen   = 255
	maxMessageLen = 1000
)

// Indian mobile numbering plan: 10 digits, first digit 6-9.
var phoneRe = regexp.MustCompile(`^[6-9][0-9]{9}$`)

// Minimal local@domain.tld shape; anything stricter rejects real addresses.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizePhone strips everything but digits, so "+91 98765-43210" and
// "9876543210" compare equal. Country prefixes are not removed; the caller
// is expected to collect the bare 10-digit number.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func validPhone(digits string) bool {
	return phoneRe.MatchString(digits)
}

func validName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= 1 && n <= maxNameLen
}

func validEmail(email string) bool {
	return len(email) <= maxEmailLen && emailRe.MatchString(email)
}

func validMessage(message string) bool {
	return utf8.RuneCountInString(message) <= maxMessageLen
}
