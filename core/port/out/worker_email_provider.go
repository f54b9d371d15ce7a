package out

import (
	"context"
	"errors"

	"draft_worker/core/domain"
)

// Mailbox is the intake mailbox (Gmail).
type Mailbox interface {
	// Search returns up to max threads matching a Gmail search query, each reduced
	// to its latest message with image attachments loaded.
	Search(ctx context.Context, query string, max int) ([]domain.InboxThread, error)

	// MarkDone adds the processed label, removes the inbox label and archives the thread.
	MarkDone(ctx context.Context, threadID string) error

	// Send delivers a message from the authenticated account.
	Send(ctx context.Context, msg *OutgoingMail) error

	// Address returns the authenticated account's e-mail address.
	Address(ctx context.Context) (string, error)
}

// OutgoingMail is a message sent through the Mailbox.
type OutgoingMail struct {
	To          string
	Subject     string
	TextBody    string
	HTMLBody    string
	Attachments []domain.Attachment
}

// =============================================================================
// Provider Error
// =============================================================================

// ProviderErrorCode represents error codes.
type ProviderErrorCode string

const (
	ProviderErrAuth         ProviderErrorCode = "auth_error"
	ProviderErrTokenExpired ProviderErrorCode = "token_expired"
	ProviderErrRateLimit    ProviderErrorCode = "rate_limit"
	ProviderErrNotFound     ProviderErrorCode = "not_found"
	ProviderErrNetwork      ProviderErrorCode = "network_error"
	ProviderErrServer       ProviderErrorCode = "server_error"
	ProviderErrInvalidInput ProviderErrorCode = "invalid_input"
)

// ProviderError represents a provider error.
type ProviderError struct {
	Provider  string
	Code      ProviderErrorCode
	Message   string
	Err       error
	Retryable bool
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Provider + ": " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ClientError reports whether the failure was caused by the request rather than
// the upstream service.
func (e *ProviderError) ClientError() bool {
	return !e.Retryable
}

// NewProviderError creates a new provider error.
func NewProviderError(provider string, code ProviderErrorCode, message string, err error, retryable bool) *ProviderError {
	return &ProviderError{
		Provider:  provider,
		Code:      code,
		Message:   message,
		Err:       err,
		Retryable: retryable,
	}
}

// IsNotFound reports whether err is a provider not-found error.
func IsNotFound(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == ProviderErrNotFound
}
