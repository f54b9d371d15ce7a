// Package provider implements the Google Workspace adapters (Gmail, Drive, Sheets,
// Docs, Slides).
package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"draft_worker/core/port/out"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	"google.golang.org/api/slides/v1"
)

// GoogleConfig holds the OAuth client and the offline refresh token of the
// account that owns the inbox and the Drive output.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Scopes requested for the refresh token.
var Scopes = []string{
	gmail.GmailModifyScope,
	gmail.GmailSendScope,
	gmail.GmailLabelsScope,
	drive.DriveScope,
	sheets.SpreadsheetsScope,
	docs.DocumentsScope,
	slides.PresentationsScope,
}

// NewTokenSource returns a refreshing token source for cfg.
func NewTokenSource(ctx context.Context, cfg GoogleConfig) oauth2.TokenSource {
	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
	return config.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
}

// ClientOptions builds the options shared by every Google service client.
func ClientOptions(ts oauth2.TokenSource, extra ...option.ClientOption) []option.ClientOption {
	return append([]option.ClientOption{option.WithTokenSource(ts)}, extra...)
}

// wrapError maps a Google API error to an out.ProviderError.
func wrapError(provider string, err error, defaultMsg string) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized:
			return out.NewProviderError(provider, out.ProviderErrTokenExpired, "Token expired", err, false)
		case http.StatusForbidden:
			if strings.Contains(apiErr.Message, "Rate Limit") {
				return out.NewProviderError(provider, out.ProviderErrRateLimit, "Rate limit exceeded", err, true)
			}
			return out.NewProviderError(provider, out.ProviderErrAuth, "Access denied", err, false)
		case http.StatusNotFound:
			return out.NewProviderError(provider, out.ProviderErrNotFound, "Not found", err, false)
		case http.StatusBadRequest:
			return out.NewProviderError(provider, out.ProviderErrInvalidInput, defaultMsg, err, false)
		case http.StatusTooManyRequests:
			return out.NewProviderError(provider, out.ProviderErrRateLimit, "Too many requests", err, true)
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			return out.NewProviderError(provider, out.ProviderErrServer, "Server error", err, true)
		}
	}

	return out.NewProviderError(provider, out.ProviderErrServer, defaultMsg, err, true)
}
