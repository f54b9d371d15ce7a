package out

import "context"

// TextGenerator is a chat-completion backend asked for JSON answers.
type TextGenerator interface {
	// CompleteJSON sends prompt as a single user message and returns the raw reply,
	// which the model was instructed to format as a JSON object.
	CompleteJSON(ctx context.Context, prompt string) (string, error)
}

// TitleFetcher reads a human-readable title from a web page.
type TitleFetcher interface {
	// FetchTitle returns the page title, or "" when the page has none.
	FetchTitle(ctx context.Context, url string) (string, error)
}
